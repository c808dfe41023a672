package models

// RowError records a single failed spreadsheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BulkOutcome summarises a bulk import: every uploaded row lands in exactly
// one bucket, so a bad row can never masquerade as a full success.
type BulkOutcome struct {
	Inserted  int        `json:"inserted"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

// Total returns the number of processed rows.
func (o BulkOutcome) Total() int {
	return o.Inserted + o.Updated + o.Skipped + o.Failed
}
