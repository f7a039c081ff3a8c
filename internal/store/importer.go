package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrRequiredValue is returned when a NOT NULL column receives a blank value.
var ErrRequiredValue = errors.New("required field is empty")

// ColumnType selects how a raw value is coerced.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInteger
	ColumnNumeric
	ColumnDate
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInteger:
		return "integer"
	case ColumnNumeric:
		return "numeric"
	case ColumnDate:
		return "date"
	default:
		return "text"
	}
}

// Column binds a record field to a table column.
type Column struct {
	Name     string
	Field    string
	Type     ColumnType
	Required bool
}

// Target is the table an import kind writes to.
type Target struct {
	Table   string
	Columns []Column
}

// CopyColumns returns the COPY column list: business_id, import_id, then
// the target columns in order.
func (t Target) CopyColumns() []string {
	cols := make([]string, 0, len(t.Columns)+2)
	cols = append(cols, "business_id", "import_id")
	for _, c := range t.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

// BuildRows coerces records into COPY rows. Fields absent from a record are
// written as NULL. The first bad value aborts with its 1-based row number.
func (t Target) BuildRows(businessID, importID uuid.UUID, records []csvimport.Record) ([][]any, error) {
	bid := pgtype.UUID{Bytes: businessID, Valid: true}
	iid := pgtype.UUID{Bytes: importID, Valid: true}

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		row := make([]any, 0, len(t.Columns)+2)
		row = append(row, bid, iid)

		for _, col := range t.Columns {
			v, err := coerce(col, rec[col.Field])
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+1, col.Field, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func coerce(col Column, raw string) (any, error) {
	var (
		v     any
		valid bool
		err   error
	)

	switch col.Type {
	case ColumnInteger:
		var n pgtype.Int4
		n, err = ParseInt4(raw)
		v, valid = n, n.Valid
	case ColumnNumeric:
		var n pgtype.Numeric
		n, err = ParseNumeric(raw)
		v, valid = n, n.Valid
	case ColumnDate:
		var d pgtype.Date
		d, err = ParseDate(raw)
		v, valid = d, d.Valid
	default:
		s := ToPgText(raw)
		v, valid = s, s.Valid
	}

	if err != nil {
		return nil, err
	}
	if col.Required && !valid {
		return nil, ErrRequiredValue
	}
	return v, nil
}

// Importer writes batches with COPY.
type Importer struct {
	db TxBeginner
}

// NewImporter creates an Importer over a pool.
func NewImporter(db TxBeginner) *Importer {
	return &Importer{db: db}
}

// Import coerces and copies records into target in one transaction and
// returns the number of rows written. Nothing is written on error.
func (im *Importer) Import(ctx context.Context, target Target, businessID, importID uuid.UUID, records []csvimport.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows, err := target.BuildRows(businessID, importID, records)
	if err != nil {
		return 0, err
	}

	tx, err := im.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{target.Table}, target.CopyColumns(), pgx.CopyFromRows(rows))
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, fmt.Errorf("copy into %s: %w", target.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s import: %w", target.Table, err)
	}
	return n, nil
}
