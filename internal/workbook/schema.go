package workbook

import (
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// Field declares one named column and its policy.
//
// A Required field fails the sheet when its column is missing and drops the
// row when its cell is blank. Optional fields fall back to Default.
type Field struct {
	Header   string
	Required bool
	Default  float64
}

// Schema is the typed column contract of a sheet.
type Schema struct {
	Sheet  string
	Fields []Field
}

// Check verifies that every required column is present in the header row.
func (s Schema) Check(sheet *Sheet) error {
	var missing []string
	for _, f := range s.Fields {
		if f.Required && !sheet.HasColumn(f.Header) {
			missing = append(missing, f.Header)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingColumnError{Sheet: s.Sheet, Columns: missing}
	}
	return nil
}

// Field returns the declaration for header.
func (s Schema) Field(header string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Header == header {
			return f, true
		}
	}
	return Field{}, false
}

// Number reads a numeric cell honoring the field policy. ok is false only
// when a required cell is blank or unparseable.
func (s Schema) Number(r Row, header string) (v float64, ok bool) {
	f, _ := s.Field(header)
	if v, ok := r.Number(header); ok {
		return v, true
	}
	if f.Required {
		return 0, false
	}
	return f.Default, true
}

// Text reads a text cell. ok is false only when a required cell is blank.
func (s Schema) Text(r Row, header string) (string, bool) {
	f, _ := s.Field(header)
	v := r.Text(header)
	if v == "" && f.Required {
		return "", false
	}
	return v, true
}
