package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/dataset"
	"github.com/sells-group/crop-advisor/internal/matcher"
	"github.com/sells-group/crop-advisor/internal/model"
	"github.com/sells-group/crop-advisor/internal/store"
)

// Table sources reported by loadTable.
const (
	sourceFile   = "file"
	sourceStore  = "store"
	sourceSample = "sample"
)

// loadTable resolves the active reference table: an explicit dataset file
// wins, then a non-empty store, then the embedded sample.
func loadTable(ctx context.Context, c *config.Config, path string) ([]model.CropTolerance, string, error) {
	if path == "" {
		path = c.Dataset.Path
	}
	if path != "" {
		table, err := dataset.Load(path, dataset.Options{Sheet: c.Dataset.Sheet})
		if err != nil {
			return nil, "", err
		}
		return table, sourceFile, nil
	}

	if storeAvailable(c.Store) {
		st, err := store.Open(ctx, c.Store)
		if err != nil {
			return nil, "", eris.Wrap(err, "load table: open store")
		}
		defer st.Close() //nolint:errcheck

		table, err := st.ListCrops(ctx)
		if err != nil {
			return nil, "", eris.Wrap(err, "load table: list crops")
		}
		if len(table) > 0 {
			zap.L().Debug("loaded table from store", zap.Int("records", len(table)))
			return table, sourceStore, nil
		}
	}

	return dataset.Sample(), sourceSample, nil
}

// storeAvailable reports whether reading the store makes sense. A missing
// SQLite file means nothing was imported yet and is not created on read.
func storeAvailable(sc config.StoreConfig) bool {
	switch sc.Driver {
	case "sqlite":
		if sc.DatabaseURL == "" {
			return false
		}
		_, err := os.Stat(sc.DatabaseURL)
		return err == nil
	case "postgres":
		return sc.DatabaseURL != ""
	default:
		return false
	}
}

// newMatcher builds a matcher from the configured matcher section.
func newMatcher(mc config.MatcherConfig) (*matcher.Matcher, error) {
	if err := matcher.ValidateConfig(mc); err != nil {
		return nil, err
	}
	return matcher.New(mc), nil
}
