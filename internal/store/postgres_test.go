package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS crop_tolerances`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCrops(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM crop_tolerances`).WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"crop_tolerances"}, cropColumns).WillReturnResult(3)
	mock.ExpectExec(`INSERT INTO table_imports`).
		WithArgs(pgxmock.AnyArg(), "crop_data.xlsx", 3, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	imp, err := s.ReplaceCrops(context.Background(), "crop_data.xlsx", testCrops())
	require.NoError(t, err)
	assert.Equal(t, 3, imp.Records)
	assert.NotEmpty(t, imp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCrops_CopyFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM crop_tolerances`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"crop_tolerances"}, cropColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.ReplaceCrops(context.Background(), "crop_data.csv", testCrops())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: copy crops")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCrops_BeginFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("db error"))

	_, err := s.ReplaceCrops(context.Background(), "crop_data.csv", testCrops())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceCrops_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	_, err := s.ReplaceCrops(context.Background(), "empty.csv", nil)
	assert.True(t, eris.Is(err, ErrEmptyTable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCrops(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := mock.NewRows(cropColumns)
	for i, c := range testCrops() {
		rows.AddRow(cropValues(i, c)...)
	}
	mock.ExpectQuery(`SELECT position, crop, soil_type, .* FROM crop_tolerances ORDER BY position`).
		WillReturnRows(rows)

	crops, err := s.ListCrops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testCrops(), crops)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCrops_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM crop_tolerances`).WillReturnError(errors.New("connection reset"))

	_, err := s.ListCrops(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list crops")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastImport(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, source, records, imported_at FROM table_imports`).
		WillReturnRows(mock.NewRows([]string{"id", "source", "records", "imported_at"}).
			AddRow("imp-1", "crop_data.csv", 25, at))

	imp, err := s.LastImport(context.Background())
	require.NoError(t, err)
	require.NotNil(t, imp)
	assert.Equal(t, "imp-1", imp.ID)
	assert.Equal(t, 25, imp.Records)
	assert.Equal(t, at, imp.ImportedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastImport_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM table_imports`).WillReturnError(pgx.ErrNoRows)

	imp, err := s.LastImport(context.Background())
	require.NoError(t, err)
	assert.Nil(t, imp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseWithoutPool(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.NoError(t, s.Close())
}
