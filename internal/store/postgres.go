package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/db"
	"github.com/sells-group/crop-advisor/internal/model"
	"github.com/sells-group/crop-advisor/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32

	// ConnectAttempts bounds the initial ping retries. Default: 3.
	ConnectAttempts int
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("postgres: ping")
	if poolCfg != nil {
		if poolCfg.ConnectAttempts > 0 {
			retry.MaxAttempts = poolCfg.ConnectAttempts
		}
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := resilience.Do(ctx, retry, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller keeps ownership.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS crop_tolerances (
	position  INTEGER PRIMARY KEY,
	crop      TEXT NOT NULL,
	soil_type TEXT NOT NULL,
	ph_min    DOUBLE PRECISION NOT NULL,
	ph_max    DOUBLE PRECISION NOT NULL,
	n_min     DOUBLE PRECISION NOT NULL,
	n_max     DOUBLE PRECISION NOT NULL,
	p_min     DOUBLE PRECISION NOT NULL,
	p_max     DOUBLE PRECISION NOT NULL,
	k_min     DOUBLE PRECISION NOT NULL,
	k_max     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS table_imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	records     INTEGER NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_table_imports_imported_at ON table_imports(imported_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceCrops(ctx context.Context, source string, records []model.CropTolerance) (*model.TableImport, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = cropValues(i, rec)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM crop_tolerances`); err != nil {
		return nil, eris.Wrap(err, "postgres: clear crops")
	}

	if _, err := db.CopyFrom(ctx, tx, "crop_tolerances", cropColumns, rows); err != nil {
		return nil, eris.Wrap(err, "postgres: copy crops")
	}

	imp := &model.TableImport{
		ID:         uuid.New().String(),
		Source:     source,
		Records:    len(records),
		ImportedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO table_imports (id, source, records, imported_at) VALUES ($1, $2, $3, $4)`,
		imp.ID, imp.Source, imp.Records, imp.ImportedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit crops")
	}

	zap.L().Info("postgres: replaced crop table",
		zap.String("source", source),
		zap.Int("records", len(records)),
	)
	return imp, nil
}

func (s *PostgresStore) ListCrops(ctx context.Context) ([]model.CropTolerance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+strings.Join(cropColumns, ", ")+` FROM crop_tolerances ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list crops")
	}
	defer rows.Close()

	crops := []model.CropTolerance{}
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan crop")
		}
		crops = append(crops, c)
	}
	return crops, eris.Wrap(rows.Err(), "postgres: list crops iterate")
}

func (s *PostgresStore) LastImport(ctx context.Context) (*model.TableImport, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, records, imported_at FROM table_imports ORDER BY imported_at DESC LIMIT 1`)

	var imp model.TableImport
	err := row.Scan(&imp.ID, &imp.Source, &imp.Records, &imp.ImportedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: last import")
	}
	return &imp, nil
}
