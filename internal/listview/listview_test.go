package listview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/pkg/export"
)

type row struct {
	Code   string
	Name   string
	Status string
	Seats  int
}

func rowSchema() Schema[row] {
	return Schema[row]{
		Fields: map[string]func(row) string{
			"code":   func(r row) string { return r.Code },
			"name":   func(r row) string { return r.Name },
			"status": func(r row) string { return r.Status },
			"seats":  func(r row) string { return fmt.Sprintf("%d", r.Seats) },
		},
		Searchable: []string{"code", "name"},
	}
}

func sampleRows(n int) []row {
	rows := make([]row, 0, n)
	for i := 0; i < n; i++ {
		status := "ACTIVE"
		if i%2 == 1 {
			status = "INACTIVE"
		}
		rows = append(rows, row{
			Code:   fmt.Sprintf("C%03d", i),
			Name:   fmt.Sprintf("Record %d", i),
			Status: status,
			Seats:  n - i,
		})
	}
	return rows
}

func TestFilterEmptyTermReturnsAll(t *testing.T) {
	rows := sampleRows(7)
	got := Filter(rows, Query{}, rowSchema())
	assert.Equal(t, rows, got)

	// returned slice is a copy, not an alias
	got[0].Code = "mutated"
	assert.Equal(t, "C000", rows[0].Code)
}

func TestFilterIsCaseInsensitiveSubsetMatch(t *testing.T) {
	rows := sampleRows(20)
	got := Filter(rows, Query{Search: "record 1"}, rowSchema())

	// "Record 1", "Record 10".."Record 19"
	require.Len(t, got, 11)
	for _, r := range got {
		assert.True(t, strings.Contains(strings.ToLower(r.Name), "record 1"))
	}
}

func TestFilterDiscreteExactMatch(t *testing.T) {
	rows := sampleRows(10)

	got := Filter(rows, Query{Filters: map[string]string{"status": "ACTIVE"}}, rowSchema())
	require.Len(t, got, 5)
	for _, r := range got {
		assert.Equal(t, "ACTIVE", r.Status)
	}

	// empty filter value is a no-op
	got = Filter(rows, Query{Filters: map[string]string{"status": ""}}, rowSchema())
	assert.Len(t, got, 10)

	// unknown filter field is ignored rather than matching nothing
	got = Filter(rows, Query{Filters: map[string]string{"bogus": "x"}}, rowSchema())
	assert.Len(t, got, 10)
}

func TestSortNumericAndString(t *testing.T) {
	rows := sampleRows(5)

	Sort(rows, Query{SortBy: "seats", SortOrder: "asc"}, rowSchema())
	assert.Equal(t, 1, rows[0].Seats)
	assert.Equal(t, 5, rows[4].Seats)

	Sort(rows, Query{SortBy: "code", SortOrder: "desc"}, rowSchema())
	assert.Equal(t, "C004", rows[0].Code)
}

func TestPaginateConcatenationReconstructs(t *testing.T) {
	rows := sampleRows(23)

	var rebuilt []row
	for page := 1; ; page++ {
		items, p := Paginate(rows, page, 10, Limits{})
		assert.LessOrEqual(t, len(items), 10)
		rebuilt = append(rebuilt, items...)
		if page >= (p.TotalCount+p.PageSize-1)/p.PageSize {
			break
		}
	}
	assert.Equal(t, rows, rebuilt)
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	rows := sampleRows(15)

	items, p := Paginate(rows, 99, 10, Limits{})
	assert.Equal(t, 2, p.Page)
	assert.Len(t, items, 5)

	items, p = Paginate(rows, 0, 10, Limits{})
	assert.Equal(t, 1, p.Page)
	assert.Len(t, items, 10)

	items, p = Paginate([]row{}, 3, 10, Limits{})
	assert.Empty(t, items)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalCount)
}

func TestApplySearchTwoOfFifty(t *testing.T) {
	rows := sampleRows(50)
	rows[7].Name = "Zoology Honours"
	rows[17].Name = "Zoology Pass"

	page := Apply(rows, Query{Search: "zoology", PageSize: 10}, rowSchema(), Limits{})
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pagination.TotalCount)
	assert.Equal(t, 1, page.Pagination.Page)
}

func TestDatasetBuildsFromFilteredSet(t *testing.T) {
	rows := sampleRows(3)
	columns := []Column[row]{
		{Header: "Code", Value: func(r row) string { return r.Code }},
		{Header: "Seats", Value: func(r row) string { return export.Int(r.Seats) }},
	}

	ds := Dataset(rows, columns)
	require.Equal(t, []string{"Code", "Seats"}, ds.Headers)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, "C000", ds.Rows[0]["Code"])
	assert.Equal(t, "3", ds.Rows[0]["Seats"])
}
