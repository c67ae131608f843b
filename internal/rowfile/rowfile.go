// Package rowfile reads and writes dataset rows as JSON, YAML or CSV files.
//
// JSON and YAML documents are either a bare list of rows or an object with a
// "content" list, so a page saved by "list --output json" can be submitted as is.
// CSV files need a header row naming the name, description and records columns;
// an optional id column is accepted and other columns are ignored.
package rowfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/logging"
)

// Format names a row file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Errors returned while reading or writing row files.
var (
	ErrUnsupportedFormat = errors.New("unsupported row file format")
	ErrMissingColumn     = errors.New("missing required CSV column")
	ErrMalformed         = errors.New("malformed row file")
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Load reads rows from path, choosing the decoder from its extension.
func Load(ctx context.Context, path string) ([]dataset.Row, error) {
	log := logging.FromContext(ctx)

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading row file: %w", err)
	}

	rows, err := Parse(data, format)
	if err != nil {
		log.Error().
			Ctx(ctx).
			Str("component", "rowfile").
			Str("path", path).
			Err(err).
			Msg("failed to parse row file")
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "rowfile").
		Str("path", path).
		Str("format", string(format)).
		Int("rows", len(rows)).
		Msg("row file loaded")

	return rows, nil
}

// Parse decodes rows from data. Every returned row has a client key.
func Parse(data []byte, format Format) ([]dataset.Row, error) {
	var (
		rows []dataset.Row
		err  error
	)
	switch format {
	case FormatJSON:
		rows, err = parseJSON(data)
	case FormatYAML:
		rows, err = parseYAML(data)
	case FormatCSV:
		rows, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i] = rows[i].WithKey()
	}
	return rows, nil
}

func parseJSON(data []byte) ([]dataset.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []dataset.Row{}, nil
	}

	if trimmed[0] == '{' {
		var page dataset.Page
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return nonNil(page.Content), nil
	}

	var rows []dataset.Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nonNil(rows), nil
}

// yamlRow accepts records as any scalar; yaml decodes bare numbers as int or float.
type yamlRow struct {
	ID          *int64 `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Records     any    `yaml:"records"`
}

func (r yamlRow) row() (dataset.Row, error) {
	out := dataset.Row{ID: r.ID, Name: r.Name, Description: r.Description}
	switch v := r.Records.(type) {
	case nil:
		out.Records = ""
	case int:
		out.Records = json.Number(strconv.Itoa(v))
	case int64:
		out.Records = json.Number(strconv.FormatInt(v, 10))
	case uint64:
		out.Records = json.Number(strconv.FormatUint(v, 10))
	case float64:
		out.Records = json.Number(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		out.Records = json.Number(strings.TrimSpace(v))
	default:
		return out, fmt.Errorf("%w: records must be a scalar, got %T", ErrMalformed, v)
	}
	return out, nil
}

func parseYAML(data []byte) ([]dataset.Row, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(node.Content) == 0 {
		return []dataset.Row{}, nil
	}

	var raw []yamlRow
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Content []yamlRow `yaml:"content"`
		}
		if err := doc.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		raw = wrapped.Content
	default:
		return nil, fmt.Errorf("%w: expected a list of rows", ErrMalformed)
	}

	rows := make([]dataset.Row, 0, len(raw))
	for i, r := range raw {
		row, err := r.row()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCSV(data []byte) ([]dataset.Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []dataset.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range dataset.Fields {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	idCol, hasID := columns["id"]

	cell := func(record []string, col int) string {
		if col < len(record) {
			return strings.TrimSpace(record[col])
		}
		return ""
	}

	rows := []dataset.Row{}
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, readErr)
		}

		row := dataset.Row{
			Name:        cell(record, columns[dataset.FieldName]),
			Description: cell(record, columns[dataset.FieldDescription]),
			Records:     json.Number(cell(record, columns[dataset.FieldRecords])),
		}
		if hasID {
			if v := cell(record, idCol); v != "" {
				id, parseErr := strconv.ParseInt(v, 10, 64)
				if parseErr != nil {
					line, _ := reader.FieldPos(idCol)
					return nil, fmt.Errorf("%w: line %d: invalid id %q", ErrMalformed, line, v)
				}
				row.ID = &id
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func nonNil(rows []dataset.Row) []dataset.Row {
	if rows == nil {
		return []dataset.Row{}
	}
	return rows
}
