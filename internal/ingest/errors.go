package ingest

import (
	"errors"
	"fmt"
)

// InvalidWorkbookError reports input that is not a readable .xlsx workbook.
type InvalidWorkbookError struct {
	Err error
}

func (e *InvalidWorkbookError) Error() string {
	return "ingest: not a readable xlsx workbook: " + e.Err.Error()
}

func (e *InvalidWorkbookError) Unwrap() error {
	return e.Err
}

// MissingSheetError reports a workbook without one of the four required sheets.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("ingest: workbook has no sheet %q", e.Sheet)
}

// MissingColumnError reports a sheet header without a required column.
type MissingColumnError struct {
	Sheet  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("ingest: sheet %q is missing column %q", e.Sheet, e.Column)
}

// ParseError reports a cell that could not be read as the column's type.
type ParseError struct {
	Sheet  string
	Row    int // 1-based sheet row, header is row 1
	Column string
	Value  string
	Kind   string // "date" or "number"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ingest: sheet %q row %d column %q: cannot parse %q as %s",
		e.Sheet, e.Row, e.Column, e.Value, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err (or any error in its chain) is a
// malformed-input error: unreadable workbook, missing sheet, missing column
// or unparseable value.
func IsMalformed(err error) bool {
	if err == nil {
		return false
	}
	var wbErr *InvalidWorkbookError
	var sheetErr *MissingSheetError
	var colErr *MissingColumnError
	var parseErr *ParseError
	return errors.As(err, &wbErr) || errors.As(err, &sheetErr) || errors.As(err, &colErr) || errors.As(err, &parseErr)
}
