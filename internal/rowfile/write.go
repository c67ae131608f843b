package rowfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rshade/datasetctl/internal/dataset"
)

const yamlIndent = 2

// Encode writes rows to w in the given format. The output parses back with Parse.
func Encode(w io.Writer, format Format, rows []dataset.Row) error {
	rows = nonNil(rows)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		return encodeYAML(w, rows)
	case FormatCSV:
		return encodeCSV(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func encodeYAML(w io.Writer, rows []dataset.Row) error {
	out := make([]yamlRow, len(rows))
	for i, r := range rows {
		out[i] = yamlRow{ID: r.ID, Name: r.Name, Description: r.Description, Records: yamlRecords(r.Records)}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// yamlRecords emits numeric records as plain YAML numbers and anything else as a string.
func yamlRecords(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func encodeCSV(w io.Writer, rows []dataset.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", dataset.FieldName, dataset.FieldDescription, dataset.FieldRecords}); err != nil {
		return fmt.Errorf("encoding csv: %w", err)
	}
	for _, r := range rows {
		id := ""
		if r.ID != nil {
			id = strconv.FormatInt(*r.ID, 10)
		}
		if err := cw.Write([]string{id, r.Name, r.Description, r.Records.String()}); err != nil {
			return fmt.Errorf("encoding csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
