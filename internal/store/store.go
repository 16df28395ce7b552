// Package store persists the crop reference table. Recommendations are never
// stored.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/model"
)

// ErrEmptyTable is returned when asked to replace the table with no records.
var ErrEmptyTable = eris.New("store: empty table")

// Store defines the persistence interface for the reference table.
type Store interface {
	// ReplaceCrops swaps the whole table for records, atomically, and logs
	// the import under source.
	ReplaceCrops(ctx context.Context, source string, records []model.CropTolerance) (*model.TableImport, error)

	// ListCrops returns the table in import order. An empty table yields an
	// empty slice.
	ListCrops(ctx context.Context) ([]model.CropTolerance, error)

	// LastImport returns the most recent import, or nil when there is none.
	LastImport(ctx context.Context) (*model.TableImport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Compile-time interface checks.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open connects to the configured driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns:        cfg.MaxConns,
			ConnectAttempts: cfg.ConnectAttempts,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// cropColumns is the column order shared by inserts and selects.
var cropColumns = []string{
	"position", "crop", "soil_type",
	"ph_min", "ph_max",
	"n_min", "n_max",
	"p_min", "p_max",
	"k_min", "k_max",
}

func cropValues(position int, c model.CropTolerance) []any {
	return []any{
		position, c.Crop, c.SoilType,
		c.PHMin, c.PHMax,
		c.NMin, c.NMax,
		c.PMin, c.PMax,
		c.KMin, c.KMax,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCrop(s scannable) (model.CropTolerance, error) {
	var (
		c   model.CropTolerance
		pos int
	)
	err := s.Scan(&pos, &c.Crop, &c.SoilType,
		&c.PHMin, &c.PHMax,
		&c.NMin, &c.NMax,
		&c.PMin, &c.PMax,
		&c.KMin, &c.KMax,
	)
	return c, err
}
