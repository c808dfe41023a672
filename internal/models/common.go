package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Doc is a JSONB-backed document column holding a nested collection that has
// no identity of its own; it is read and written with its parent record.
type Doc[T any] []T

// Value implements driver.Valuer.
func (d Doc[T]) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document column: %w", err)
	}
	return payload, nil
}

// Scan implements sql.Scanner.
func (d *Doc[T]) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document column type %T", src)
	}
	if len(raw) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(raw, d)
}
