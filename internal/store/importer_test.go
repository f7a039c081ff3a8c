package store

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTarget = Target{
	Table: "customers",
	Columns: []Column{
		{Name: "name", Field: "name", Type: ColumnText, Required: true},
		{Name: "email", Field: "email", Type: ColumnText},
		{Name: "total_bookings", Field: "total_bookings", Type: ColumnInteger},
		{Name: "total_spent", Field: "total_spent", Type: ColumnNumeric},
		{Name: "last_service_date", Field: "last_service_date", Type: ColumnDate},
	},
}

var testColumns = []string{"business_id", "import_id", "name", "email", "total_bookings", "total_spent", "last_service_date"}

func TestTarget_CopyColumns(t *testing.T) {
	assert.Equal(t, testColumns, testTarget.CopyColumns())
}

func TestTarget_BuildRows(t *testing.T) {
	bid, iid := uuid.New(), uuid.New()
	records := []csvimport.Record{
		{"name": "Jane", "email": "jane@x.com", "total_bookings": "4", "total_spent": "$320.00", "last_service_date": "2024-05-01"},
		{"name": "Bob", "email": ""},
	}

	rows, err := testTarget.BuildRows(bid, iid, records)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, pgtype.UUID{Bytes: bid, Valid: true}, rows[0][0])
	assert.Equal(t, pgtype.UUID{Bytes: iid, Valid: true}, rows[0][1])
	assert.Equal(t, pgtype.Text{String: "Jane", Valid: true}, rows[0][2])
	assert.Equal(t, pgtype.Int4{Int32: 4, Valid: true}, rows[0][4])

	assert.Equal(t, pgtype.Text{}, rows[1][3], "blank email is NULL")
	assert.Equal(t, pgtype.Int4{}, rows[1][4], "missing field is NULL")
	assert.Equal(t, pgtype.Date{}, rows[1][6])
}

func TestTarget_BuildRowsErrors(t *testing.T) {
	tests := []struct {
		name    string
		record  csvimport.Record
		wantErr string
	}{
		{"bad integer", csvimport.Record{"name": "Jane", "total_bookings": "lots"}, "row 2: total_bookings: invalid number"},
		{"bad date", csvimport.Record{"name": "Jane", "last_service_date": "someday"}, "row 2: last_service_date: invalid date"},
		{"required blank", csvimport.Record{"name": "  ", "email": "a@x.com"}, "row 2: name: required field is empty"},
		{"required missing", csvimport.Record{"email": "a@x.com"}, "row 2: name: required field is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []csvimport.Record{{"name": "ok"}, tt.record}
			_, err := testTarget.BuildRows(uuid.New(), uuid.New(), records)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImporter_Import(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"customers"}, testColumns).WillReturnResult(2)
	mock.ExpectCommit()

	im := NewImporter(mock)
	n, err := im.Import(context.Background(), testTarget, uuid.New(), uuid.New(), []csvimport.Record{
		{"name": "Jane"},
		{"name": "Bob", "total_spent": "12.50"},
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_CopyFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"customers"}, testColumns).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	im := NewImporter(mock)
	_, err = im.Import(context.Background(), testTarget, uuid.New(), uuid.New(), []csvimport.Record{{"name": "Jane"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into customers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_CoercionFailureTouchesNothing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	im := NewImporter(mock)
	_, err = im.Import(context.Background(), testTarget, uuid.New(), uuid.New(), []csvimport.Record{
		{"name": "Jane", "total_spent": "priceless"},
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_EmptyBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewImporter(mock).Import(context.Background(), testTarget, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS import_runs").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}
