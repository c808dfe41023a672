package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func studentHeaders() *HeaderMap {
	return NewHeaderMap(map[string][]string{
		"studentName": {"Student Name"},
		"rollNo":      {"Roll No", "roll_number"},
		"marks":       {"Marks Obtained"},
	})
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func TestHeaderMapResolvesLabelVariants(t *testing.T) {
	headers := studentHeaders()

	for _, label := range []string{"Student Name", "studentName", "STUDENT_NAME", "student name"} {
		field, ok := headers.Resolve(label)
		require.True(t, ok, label)
		assert.Equal(t, "studentName", field)
	}

	_, ok := headers.Resolve("Unrelated Column")
	assert.False(t, ok)
}

func TestParseMapsRowsByCanonicalField(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Student Name", "roll_number", "Marks Obtained", "Ignored"},
		{"Asha Rao", "R001", 88, "x"},
		{"Vikram Shah", "R002", 73, "y"},
	})

	rows, err := Parse(buf, studentHeaders())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Asha Rao", rows[0]["studentName"])
	assert.Equal(t, "R001", rows[0]["rollNo"])
	assert.Equal(t, "88", rows[0]["marks"])
	_, present := rows[0]["Ignored"]
	assert.False(t, present)
}

func TestParseSkipsBlankRows(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Student Name", "Roll No"},
		{"Asha Rao", "R001"},
		{"", ""},
		{"Vikram Shah", "R002"},
	})

	rows, err := Parse(buf, studentHeaders())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseRejectsHeaderOnlyWorkbook(t *testing.T) {
	buf := workbook(t, [][]interface{}{{"Student Name", "Roll No"}})

	_, err := Parse(buf, studentHeaders())
	assert.Error(t, err)
}

func TestParseRejectsUnknownHeaders(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Foo", "Bar"},
		{"1", "2"},
	})

	_, err := Parse(buf, studentHeaders())
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("not a workbook")), studentHeaders())
	assert.Error(t, err)
}

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("marks.xlsx"))
	assert.True(t, AllowedExtension("MARKS.XLS"))
	assert.False(t, AllowedExtension("marks.csv"))
	assert.False(t, AllowedExtension("marks"))
}
