package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crop-advisor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS crop_tolerances (
	position  INTEGER PRIMARY KEY,
	crop      TEXT NOT NULL,
	soil_type TEXT NOT NULL,
	ph_min    REAL NOT NULL,
	ph_max    REAL NOT NULL,
	n_min     REAL NOT NULL,
	n_max     REAL NOT NULL,
	p_min     REAL NOT NULL,
	p_max     REAL NOT NULL,
	k_min     REAL NOT NULL,
	k_max     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS table_imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	records     INTEGER NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_table_imports_imported_at ON table_imports(imported_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceCrops(ctx context.Context, source string, records []model.CropTolerance) (*model.TableImport, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM crop_tolerances`); err != nil {
		return nil, eris.Wrap(err, "sqlite: clear crops")
	}

	insert := `INSERT INTO crop_tolerances (` + strings.Join(cropColumns, ", ") + `) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(cropColumns)), ", ") + `)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, cropValues(i, rec)...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert crop %q", rec.Crop)
		}
	}

	imp := &model.TableImport{
		ID:         uuid.New().String(),
		Source:     source,
		Records:    len(records),
		ImportedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO table_imports (id, source, records, imported_at) VALUES (?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.Records, imp.ImportedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit crops")
	}

	zap.L().Info("sqlite: replaced crop table",
		zap.String("source", source),
		zap.Int("records", len(records)),
	)
	return imp, nil
}

func (s *SQLiteStore) ListCrops(ctx context.Context) ([]model.CropTolerance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(cropColumns, ", ")+` FROM crop_tolerances ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list crops")
	}
	defer rows.Close()

	crops := []model.CropTolerance{}
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan crop")
		}
		crops = append(crops, c)
	}
	return crops, eris.Wrap(rows.Err(), "sqlite: list crops iterate")
}

func (s *SQLiteStore) LastImport(ctx context.Context) (*model.TableImport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, records, imported_at FROM table_imports ORDER BY imported_at DESC, rowid DESC LIMIT 1`)

	var imp model.TableImport
	err := row.Scan(&imp.ID, &imp.Source, &imp.Records, &imp.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last import")
	}
	return &imp, nil
}
