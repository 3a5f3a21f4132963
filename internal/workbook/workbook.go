// Package workbook turns spreadsheet buffers into header-keyed rows and back.
package workbook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// Book is a parsed workbook: sheets in workbook order.
type Book struct {
	sheets []*Sheet
	byName map[string]*Sheet
}

// Sheet holds the header row and the data rows beneath it.
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

// Table is the serializer input for one sheet.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

func newBook() *Book {
	return &Book{byName: make(map[string]*Sheet)}
}

func (b *Book) add(s *Sheet) {
	b.sheets = append(b.sheets, s)
	b.byName[s.Name] = s
}

// SheetNames lists sheets in workbook order.
func (b *Book) SheetNames() []string {
	names := make([]string, len(b.sheets))
	for i, s := range b.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the named sheet, if present.
func (b *Book) Sheet(name string) (*Sheet, bool) {
	s, ok := b.byName[name]
	return s, ok
}

// RequireSheet returns the named sheet or a *domain.MissingSheetError.
func (b *Book) RequireSheet(name string) (*Sheet, error) {
	s, ok := b.byName[name]
	if !ok {
		return nil, &domain.MissingSheetError{Sheet: name}
	}
	return s, nil
}

// HasColumn reports whether the header row contains the column.
func (s *Sheet) HasColumn(header string) bool {
	for _, h := range s.Header {
		if h == header {
			return true
		}
	}
	return false
}

// Parse reads every sheet of an xlsx buffer. The first row of each sheet is
// the header; fully blank rows below it are skipped.
func Parse(data []byte) (*Book, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	book := newBook()
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
		}
		book.add(buildSheet(name, rows, 1))
	}

	return book, nil
}

// buildSheet maps records onto the header. firstLine is the 1-based line
// number of records[0] in the source.
func buildSheet(name string, records [][]string, firstLine int) *Sheet {
	sheet := &Sheet{Name: name}
	if len(records) == 0 {
		return sheet
	}

	sheet.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		sheet.Header[i] = strings.TrimSpace(h)
	}

	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		values := make(map[string]string, len(sheet.Header))
		for col, h := range sheet.Header {
			if h == "" || col >= len(record) {
				continue
			}
			values[h] = strings.TrimSpace(record[col])
		}
		sheet.Rows = append(sheet.Rows, Row{Line: firstLine + i + 1, values: values})
	}

	return sheet
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Serialize writes tables to a new xlsx workbook, one sheet per table.
func Serialize(tables ...Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no sheets to serialize")
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet to %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeTable(f, t); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t Table) error {
	line := 1
	if len(t.Header) > 0 {
		header := make([]any, len(t.Header))
		for i, h := range t.Header {
			header[i] = h
		}
		if err := setRow(f, t.Name, line, header); err != nil {
			return err
		}
		line++
	}

	for _, r := range t.Rows {
		if err := setRow(f, t.Name, line, r); err != nil {
			return err
		}
		line++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, line int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of sheet %s: %w", line, sheet, err)
	}
	return nil
}
