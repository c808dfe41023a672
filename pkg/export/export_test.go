package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Institute ID", "Name", "Active", "Start Date"},
		Rows: []map[string]string{
			{"Institute ID": "INST-1", "Name": "Science College", "Active": "Yes", "Start Date": "01-06-2025"},
			{"Institute ID": "INST-2", "Name": "Arts College", "Active": "No", "Start Date": ""},
		},
	}
}

func TestCSVRenderColumnOrder(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Institute ID", "Name", "Active", "Start Date"}, records[0])
	assert.Equal(t, []string{"INST-1", "Science College", "Yes", "01-06-2025"}, records[1])
	assert.Equal(t, []string{"INST-2", "Arts College", "No", ""}, records[2])
}

func TestCSVRenderRejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXRenderRoundTrip(t *testing.T) {
	payload, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, []string{"Institute ID", "Name", "Active", "Start Date"}, rows[0])
	assert.Equal(t, "INST-1", rows[1][0])
	assert.Equal(t, "Science College", rows[1][1])
}

func TestPDFRenderProducesDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Institutes")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Yes", YesNo(true))
	assert.Equal(t, "No", YesNo(false))
	assert.Equal(t, "", Date(time.Time{}))
	assert.Equal(t, "01-06-2025", Date(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "86.5", Float(86.5))
	assert.Equal(t, "3", Int(3))
}
