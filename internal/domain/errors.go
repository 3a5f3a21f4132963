package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks caller mistakes detected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingSheet marks a workbook lacking a required sheet or column.
	ErrMissingSheet = errors.New("missing data sheet")
	// ErrFileNotFound is returned by file stores for absent paths.
	ErrFileNotFound = errors.New("file not found")
)

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MissingSheetError is returned when a required sheet is absent from a workbook.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("sheet %q not found in workbook", e.Sheet)
}

func (e *MissingSheetError) Is(target error) bool {
	return target == ErrMissingSheet
}

// MissingColumnError is returned when a sheet lacks required columns.
type MissingColumnError struct {
	Sheet   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingSheet
}
