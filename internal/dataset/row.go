// Package dataset defines the dataset record exchanged with the backend and the
// paginated envelope the list endpoint returns.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Editable field names, matching the JSON keys of a Row.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldRecords     = "records"
)

// Fields lists the editable fields in display order.
//
//nolint:gochecknoglobals // Read-only lookup table.
var Fields = []string{FieldName, FieldDescription, FieldRecords}

// Errors returned by field access and validation.
var (
	ErrUnknownField  = errors.New("unknown dataset field")
	ErrRequiredField = errors.New("required field is empty")
)

// Row is one dataset record.
//
// Records keeps the text as entered; it is encoded as a JSON number, so a value
// that is not numeric fails to encode rather than being silently coerced.
type Row struct {
	// Key identifies the row on this client only and is never sent to the server.
	Key         string      `json:"-"                  yaml:"-"`
	ID          *int64      `json:"id,omitempty"       yaml:"id,omitempty"`
	Name        string      `json:"name"               yaml:"name"`
	Description string      `json:"description"        yaml:"description"`
	Records     json.Number `json:"records"            yaml:"records"`
}

// NewKey returns a fresh client-side row key.
func NewKey() string {
	return ulid.Make().String()
}

// Blank returns the default row appended by "add row".
func Blank() Row {
	return Row{Key: NewKey(), Records: "0"}
}

// WithKey returns r with a key assigned if it does not have one yet.
func (r Row) WithKey() Row {
	if r.Key == "" {
		r.Key = NewKey()
	}
	return r
}

// Field returns the raw value of the named field.
func (r Row) Field(name string) (string, error) {
	switch name {
	case FieldName:
		return r.Name, nil
	case FieldDescription:
		return r.Description, nil
	case FieldRecords:
		return r.Records.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// SetField stores value in the named field without any conversion.
func (r *Row) SetField(name, value string) error {
	switch name {
	case FieldName:
		r.Name = value
	case FieldDescription:
		r.Description = value
	case FieldRecords:
		// Surrounding spaces would make the number unencodable.
		r.Records = json.Number(strings.TrimSpace(value))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Validate reports the first required field left blank.
func (r Row) Validate() error {
	for _, name := range Fields {
		v, _ := r.Field(name)
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrRequiredField, name)
		}
	}
	return nil
}

// Equal compares the wire-visible fields of two rows, ignoring Key.
func (r Row) Equal(other Row) bool {
	if (r.ID == nil) != (other.ID == nil) {
		return false
	}
	if r.ID != nil && *r.ID != *other.ID {
		return false
	}
	return r.Name == other.Name &&
		r.Description == other.Description &&
		r.Records == other.Records
}

// CloneRows returns a copy of rows so callers cannot alias controller state.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
