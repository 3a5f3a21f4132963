package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads a CSV buffer as a single-sheet book named sheet.
func ParseCSV(data []byte, sheet string) (*Book, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = trimBOM(records[0][0])
	}

	book := newBook()
	book.add(buildSheet(sheet, records, 1))
	return book, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
