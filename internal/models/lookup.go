package models

import "time"

// LookupKind discriminates the flat code/name master data sets that share a
// single storage and endpoint shape.
type LookupKind string

const (
	LookupStream   LookupKind = "STREAM"
	LookupDegree   LookupKind = "DEGREE"
	LookupCategory LookupKind = "CATEGORY"
)

// DeletePolicy selects how removal behaves for a resource: flip the active
// flag or drop the row.
type DeletePolicy string

const (
	DeleteSoft DeletePolicy = "SOFT"
	DeleteHard DeletePolicy = "HARD"
)

// LookupItem is one entry of a flat master data set (streams, degrees,
// categories).
type LookupItem struct {
	ID        string     `db:"id" json:"id"`
	Kind      LookupKind `db:"kind" json:"kind"`
	Code      string     `db:"code" json:"code"`
	Name      string     `db:"name" json:"name"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
