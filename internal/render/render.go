// Package render writes datasets and submit results for the command line.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/rowfile"
)

// OutputFormat selects how rows are printed.
type OutputFormat string

// Output formats accepted by --output.
const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
	OutputCSV   OutputFormat = "csv"
)

// ErrUnknownOutput is returned for an unsupported --output value.
var ErrUnknownOutput = errors.New("unknown output format")

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// descriptionWidth caps the description column in table output.
const descriptionWidth = 48

// elapsedPrecision rounds the elapsed time shown on progress lines.
const elapsedPrecision = 100 * time.Millisecond

// truncateMinLen is the width below which no ellipsis is added.
const truncateMinLen = 3

// printer formats record counts with thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputTable, OutputJSON, OutputYAML, OutputCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json, yaml or csv)", ErrUnknownOutput, s)
	}
}

// Rows writes rows in the given format. Table output ends with a page footer
// when pagination is non-nil.
func Rows(w io.Writer, format OutputFormat, rows []dataset.Row, pagination *dataset.Pagination) error {
	switch format {
	case OutputTable:
		return Table(w, rows, pagination)
	case OutputJSON:
		return rowfile.Encode(w, rowfile.FormatJSON, rows)
	case OutputYAML:
		return rowfile.Encode(w, rowfile.FormatYAML, rows)
	case OutputCSV:
		return rowfile.Encode(w, rowfile.FormatCSV, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}
}

// Table writes rows as an aligned text table.
func Table(w io.Writer, rows []dataset.Row, pagination *dataset.Pagination) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	if _, err := fmt.Fprintf(tw, "#\tID\tNAME\tDESCRIPTION\tRECORDS\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "-\t--\t----\t-----------\t-------\n"); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for i, row := range rows {
		id := "-"
		if row.ID != nil {
			id = printer.Sprintf("%d", *row.ID)
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i, id, row.Name, Truncate(row.Description, descriptionWidth), FormatRecords(row.Records),
		); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if pagination != nil {
		if _, err := fmt.Fprintln(w, PageFooter(*pagination, len(rows))); err != nil {
			return fmt.Errorf("writing footer: %w", err)
		}
	}
	return nil
}

// PageFooter describes the position in the result set, e.g. "page 2 of 5 (10 rows)".
// Pages are shown 1-based.
func PageFooter(p dataset.Pagination, rows int) string {
	total := max(p.TotalPages, 1)
	return printer.Sprintf("page %d of %d (%d rows)", p.Page+1, total, rows)
}

// FormatRecords adds thousand separators to integral record counts and leaves any
// other text as entered.
func FormatRecords(n json.Number) string {
	if n == "" {
		return "-"
	}
	if i, err := n.Int64(); err == nil {
		return printer.Sprintf("%d", i)
	}
	return n.String()
}

// Truncate shortens s to maxLen runes, ending with "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= truncateMinLen {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-truncateMinLen]) + "..."
}

// SubmitReport writes the per-chunk outcome of a chunked submit followed by message.
func SubmitReport(w io.Writer, report *batch.Report, message string) error {
	if report != nil {
		for _, c := range report.Chunks {
			status := "ok"
			if !c.OK() {
				status = "FAILED: " + c.Err.Error()
			}
			if _, err := printer.Fprintf(w, "chunk %d  rows %d-%d  (%d)  %s\n",
				c.Index+1, c.Start+1, c.End, c.Size(), status); err != nil {
				return fmt.Errorf("writing chunk result: %w", err)
			}
		}
		if report.Failed() > 0 {
			if _, err := printer.Fprintf(w, "%d of %d chunks failed; %d of %d rows sent\n",
				report.Failed(), len(report.Chunks), report.ItemsSent(), report.TotalItems); err != nil {
				return fmt.Errorf("writing summary: %w", err)
			}
		}
	}
	if _, err := fmt.Fprintln(w, message); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Progress formats one progress line for a running submit.
func Progress(s batch.ProgressSnapshot) string {
	line := printer.Sprintf("uploaded chunk %d/%d  %d/%d rows  %.0f%%",
		s.DoneChunks, s.TotalChunks, s.ProcessedItems+s.FailedItems, s.TotalItems, s.PercentComplete)
	if s.FailedChunks > 0 {
		line += printer.Sprintf("  (%d failed)", s.FailedChunks)
	}
	if s.ElapsedTime > 0 {
		line += "  " + s.ElapsedTime.Round(elapsedPrecision).String()
	}
	return line
}

// ChunkPlan lists the chunks a submit would send without sending them.
func ChunkPlan(w io.Writer, bounds [][2]int) error {
	for i, b := range bounds {
		if _, err := printer.Fprintf(w, "chunk %d  rows %d-%d  (%d)\n", i+1, b[0]+1, b[1], b[1]-b[0]); err != nil {
			return fmt.Errorf("writing chunk plan: %w", err)
		}
	}
	_, err := printer.Fprintf(w, "%d rows in %d chunks\n", lastEnd(bounds), len(bounds))
	return err
}

func lastEnd(bounds [][2]int) int {
	if len(bounds) == 0 {
		return 0
	}
	return bounds[len(bounds)-1][1]
}
