package csvimport

import (
	"context"
	"errors"
)

var (
	// ErrEmptyFile is returned when a file has no header or no data rows.
	ErrEmptyFile = errors.New("empty file: need a header row and at least one data row")

	// ErrFileTooLarge is returned by ReadText when the input exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownHeader is returned when a mapping edit names a header not in the file.
	ErrUnknownHeader = errors.New("column not found")

	// ErrUnknownField is returned when a mapping edit names a field the import does not accept.
	ErrUnknownField = errors.New("unknown target field")

	// ErrNotReady is returned when an import is attempted before every required field is mapped.
	ErrNotReady = errors.New("required field not mapped")

	// ErrSessionBusy is returned when a session operation is not allowed in the current state.
	ErrSessionBusy = errors.New("import session busy")
)

// RawTable is a parsed CSV file. It is never modified after Parse returns.
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the parse produced no usable header.
func (t RawTable) Empty() bool {
	return len(t.Headers) == 0
}

// TargetField describes a destination field supplied by the caller.
type TargetField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required,omitempty"`
}

// ColumnMapping maps one CSV header to a target field key.
//
// Mapped distinguishes "skip this column" from a mapping; Field is only
// meaningful when Mapped is true.
type ColumnMapping struct {
	Header string `json:"csvHeader"`
	Field  string `json:"dbField,omitempty"`
	Mapped bool   `json:"mapped"`
}

// Record is one transformed row: target field key -> raw cell value.
type Record map[string]string

// ImportFunc persists a full set of transformed records. It is called once
// per import; any error fails the whole batch.
type ImportFunc func(ctx context.Context, records []Record) error

// Result is the terminal outcome of an import. Exactly one of Success or
// Errors is non-zero for a non-empty batch.
type Result struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
}
