package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Achievements",
		Columns: []Column{{Title: "ID", Width: 1}, {Title: "Title", Width: 4}, {Title: "Year"}},
		Rows: [][]string{
			{"1", "Graph Neural Networks, revisited", "2020"},
			{"2", "A \"quoted\" title", "2021"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	expected := "ID,Title,Year\n1,\"Graph Neural Networks, revisited\",2020\n2,\"A \"\"quoted\"\" title\",2021\n"
	assert.Equal(t, expected, string(out))
}

func TestPDFExporterRender(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 60; i++ {
		table.Rows = append(table.Rows, []string{"9", "a very long title that certainly will not fit inside its narrow column at all", "2022"})
	}
	out, err := NewPDFExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"only one"})
	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(table)
	assert.Error(t, err)
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, ".pdf", r.Extension())
	_, err = NewRenderer(Format("doc"))
	assert.Error(t, err)
}
