package workbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by header text. Line is the 1-based line in the
// source sheet.
type Row struct {
	Line   int
	values map[string]string
}

// NewRow builds a row from header/value pairs.
func NewRow(line int, values map[string]string) Row {
	return Row{Line: line, values: values}
}

// Text returns the trimmed cell text, or "" when the column is absent.
func (r Row) Text(header string) string {
	return r.values[header]
}

// Number parses the cell as a number. Blank or unparseable cells report false.
// A single comma is accepted as the decimal separator.
func (r Row) Number(header string) (float64, bool) {
	raw := strings.ReplaceAll(r.values[header], " ", "")
	if raw == "" {
		return 0, false
	}
	if !strings.Contains(raw, ".") && strings.Count(raw, ",") == 1 {
		raw = strings.Replace(raw, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumberOr returns the parsed number or def.
func (r Row) NumberOr(header string, def float64) float64 {
	if v, ok := r.Number(header); ok {
		return v
	}
	return def
}

// Flag reports whether the cell carries the inclusion marker "x".
func (r Row) Flag(header string) bool {
	return strings.Contains(strings.ToLower(r.values[header]), "x")
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
}

// Time parses a date cell given either as an Excel serial number or as text.
func (r Row) Time(header string) (*time.Time, bool) {
	raw := r.values[header]
	if raw == "" {
		return nil, false
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, false
		}
		return &t, true
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	return nil, false
}
