// Package listview implements the record list pipeline shared by every
// management resource: free-text search, discrete filters, sorting and
// client-style pagination over the full in-memory record set, plus dataset
// building for spreadsheet export. Each resource supplies a Schema describing
// its stringified fields; the pipeline itself is entity-agnostic.
package listview

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/pkg/export"
)

// Query carries the list parameters taken from the request.
type Query struct {
	Search    string
	Filters   map[string]string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Schema describes how a record type exposes its fields to the pipeline.
// Accessors must tolerate zero values; a missing field simply yields "".
type Schema[T any] struct {
	Fields     map[string]func(T) string
	Searchable []string
}

// Limits bounds page sizes; zero values fall back to the package defaults.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is one rendered slice of the pipeline output.
type Page[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// Filter returns the subset of records matching the query: the search term,
// lower-cased, must be a substring of at least one searchable field, and
// every non-empty discrete filter must equal its field exactly. An empty
// term or filter value matches everything. Pure function; the input slice is
// never mutated.
func Filter[T any](records []T, q Query, schema Schema[T]) []T {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	active := make(map[string]string, len(q.Filters))
	for field, value := range q.Filters {
		if value == "" {
			continue
		}
		if _, known := schema.Fields[field]; known {
			active[field] = value
		}
	}

	if term == "" && len(active) == 0 {
		out := make([]T, len(records))
		copy(out, records)
		return out
	}

	out := make([]T, 0, len(records))
	for _, record := range records {
		if term != "" && !matchesSearch(record, term, schema) {
			continue
		}
		if !matchesFilters(record, active, schema) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func matchesSearch[T any](record T, term string, schema Schema[T]) bool {
	for _, field := range schema.Searchable {
		accessor, ok := schema.Fields[field]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(accessor(record)), term) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](record T, filters map[string]string, schema Schema[T]) bool {
	for field, want := range filters {
		if schema.Fields[field](record) != want {
			return false
		}
	}
	return true
}

// Sort orders records by the chosen field, numerically when both values
// parse as numbers and lexically otherwise. An unknown or empty sort key is
// a no-op. Equal keys carry no ordering guarantee.
func Sort[T any](records []T, q Query, schema Schema[T]) {
	accessor, ok := schema.Fields[q.SortBy]
	if !ok {
		return
	}
	desc := strings.EqualFold(q.SortOrder, "desc")
	sort.Slice(records, func(i, j int) bool {
		a, b := accessor(records[i]), accessor(records[j])
		if desc {
			a, b = b, a
		}
		if fa, errA := strconv.ParseFloat(a, 64); errA == nil {
			if fb, errB := strconv.ParseFloat(b, 64); errB == nil {
				return fa < fb
			}
		}
		return a < b
	})
}

// Paginate slices the records into the requested page. The page index is
// clamped into [1, ceil(n/size)], so a filter change that leaves the held
// index past the end shows the last page rather than an empty one.
func Paginate[T any](records []T, page, size int, limits Limits) ([]T, models.Pagination) {
	def := limits.DefaultPageSize
	if def <= 0 {
		def = defaultPageSize
	}
	max := limits.MaxPageSize
	if max <= 0 {
		max = maxPageSize
	}
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}

	total := len(records)
	lastPage := (total + size - 1) / size
	if lastPage < 1 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return records[start:end], models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Apply runs the full pipeline: filter, sort, paginate.
func Apply[T any](records []T, q Query, schema Schema[T], limits Limits) Page[T] {
	filtered := Filter(records, q, schema)
	Sort(filtered, q, schema)
	items, pagination := Paginate(filtered, q.Page, q.PageSize, limits)
	return Page[T]{Items: items, Pagination: pagination}
}

// Column defines one export column: a human header and the value accessor.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Dataset builds an export dataset from the filtered (not paginated) record
// set. Internal fields are dropped simply by not declaring a column for
// them.
func Dataset[T any](records []T, columns []Column[T]) export.Dataset {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			row[col.Header] = col.Value(record)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
