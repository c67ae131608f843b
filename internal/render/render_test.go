package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
)

func sampleRows() []dataset.Row {
	id := int64(1042)
	return []dataset.Row{
		{ID: &id, Name: "sales", Description: "Quarterly sales", Records: "1250000"},
		{Name: "draft", Description: strings.Repeat("x", 60), Records: "2.5"},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, in := range []string{"table", "JSON", " yaml", "csv"} {
		_, err := ParseOutputFormat(in)
		require.NoError(t, err, in)
	}
	_, err := ParseOutputFormat("xml")
	require.ErrorIs(t, err, ErrUnknownOutput)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	p := dataset.Pagination{Page: 1, Size: 2, TotalPages: 4}
	require.NoError(t, Table(&buf, sampleRows(), &p))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "RECORDS")
	assert.Contains(t, lines[2], "1,042")
	assert.Contains(t, lines[2], "1,250,000")
	assert.Contains(t, lines[3], "2.5")
	assert.Contains(t, lines[3], "...")
	assert.NotContains(t, lines[3], strings.Repeat("x", 60))
	assert.Equal(t, "page 2 of 4 (2 rows)", lines[4])
}

func TestTableWithoutFooter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, nil, nil))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestRows(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Rows(&buf, OutputJSON, sampleRows()[:1], nil))
		assert.JSONEq(t, `[{"id":1042,"name":"sales","description":"Quarterly sales","records":1250000}]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Rows(&buf, OutputYAML, sampleRows()[:1], nil))
		assert.Contains(t, buf.String(), "name: sales")
		assert.Contains(t, buf.String(), "records: 1250000")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Rows(&buf, OutputCSV, sampleRows()[:1], nil))
		assert.Equal(t, "id,name,description,records\n1042,sales,Quarterly sales,1250000\n", buf.String())
	})

	t.Run("unknown", func(t *testing.T) {
		require.ErrorIs(t, Rows(&bytes.Buffer{}, "xml", nil, nil), ErrUnknownOutput)
	})
}

func TestFormatRecords(t *testing.T) {
	assert.Equal(t, "-", FormatRecords(""))
	assert.Equal(t, "0", FormatRecords("0"))
	assert.Equal(t, "18,248", FormatRecords("18248"))
	assert.Equal(t, "1e3", FormatRecords(json.Number("1e3")))
	assert.Equal(t, "lots", FormatRecords("lots"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "héllo w...", Truncate("héllo wörld!", 10))
}

func TestPageFooter(t *testing.T) {
	assert.Equal(t, "page 1 of 1 (0 rows)", PageFooter(dataset.Pagination{}, 0))
	assert.Equal(t, "page 3 of 1,200 (10 rows)", PageFooter(dataset.Pagination{Page: 2, TotalPages: 1200}, 10))
}

func TestSubmitReport(t *testing.T) {
	report := &batch.Report{
		TotalItems: 2500,
		Chunks: []batch.ChunkResult{
			{Index: 0, Start: 0, End: 1000},
			{Index: 1, Start: 1000, End: 2000, Err: errors.New("status 500")},
			{Index: 2, Start: 2000, End: 2500},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, SubmitReport(&buf, report, "done!"))
	out := buf.String()

	assert.Contains(t, out, "chunk 1  rows 1-1,000  (1,000)  ok")
	assert.Contains(t, out, "chunk 2  rows 1,001-2,000  (1,000)  FAILED: status 500")
	assert.Contains(t, out, "chunk 3  rows 2,001-2,500  (500)  ok")
	assert.Contains(t, out, "1 of 3 chunks failed; 1,500 of 2,500 rows sent")
	assert.True(t, strings.HasSuffix(out, "done!\n"))

	buf.Reset()
	require.NoError(t, SubmitReport(&buf, nil, "done!"))
	assert.Equal(t, "done!\n", buf.String())
}

func TestProgress(t *testing.T) {
	line := Progress(batch.ProgressSnapshot{
		TotalItems: 2500, ProcessedItems: 1000, FailedItems: 1000,
		TotalChunks: 3, DoneChunks: 2, FailedChunks: 1, PercentComplete: 80,
	})
	assert.Equal(t, "uploaded chunk 2/3  2,000/2,500 rows  80%  (1 failed)", line)

	line = Progress(batch.ProgressSnapshot{
		TotalItems: 10, ProcessedItems: 10, TotalChunks: 1, DoneChunks: 1,
		PercentComplete: 100, ElapsedTime: 1234 * time.Millisecond,
	})
	assert.Equal(t, "uploaded chunk 1/1  10/10 rows  100%  1.2s", line)
}

func TestChunkPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ChunkPlan(&buf, [][2]int{{0, 1000}, {1000, 2000}, {2000, 2500}}))
	assert.Equal(t, "chunk 1  rows 1-1,000  (1,000)\n"+
		"chunk 2  rows 1,001-2,000  (1,000)\n"+
		"chunk 3  rows 2,001-2,500  (500)\n"+
		"2,500 rows in 3 chunks\n", buf.String())

	buf.Reset()
	require.NoError(t, ChunkPlan(&buf, nil))
	assert.Equal(t, "0 rows in 0 chunks\n", buf.String())
}
