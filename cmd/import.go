package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/dataset"
	"github.com/sells-group/crop-advisor/internal/fetcher"
	"github.com/sells-group/crop-advisor/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the stored crop table with a dataset file",
	Long: `Load a crop tolerance table from a CSV, XLSX or YAML file, validate every
row and replace the table held in the configured store. --url downloads the
file over HTTP first. Use --sample to store the built-in table instead.`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("file", "", "path to dataset file (csv, xlsx, yaml)")
	f.String("url", "", "http(s) URL of a dataset file (csv, xlsx, yaml)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.Bool("sample", false, "import the built-in sample table")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := cfg.Validate("store"); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	rawURL, _ := cmd.Flags().GetString("url")
	sheet, _ := cmd.Flags().GetString("sheet")
	useSample, _ := cmd.Flags().GetBool("sample")

	chosen := 0
	for _, set := range []bool{path != "", rawURL != "", useSample} {
		if set {
			chosen++
		}
	}
	if chosen != 1 {
		return eris.New("import: exactly one of --file, --url or --sample is required")
	}

	source := sourceSample
	table := dataset.Sample()
	if rawURL != "" {
		dir, err := os.MkdirTemp("", "crop-import-*")
		if err != nil {
			return eris.Wrap(err, "import: create temp dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		path, err = fetcher.New(fetcher.Options{}).DownloadDataset(ctx, rawURL, dir)
		if err != nil {
			return eris.Wrap(err, "import: download dataset")
		}
	}
	if path != "" {
		if sheet == "" {
			sheet = cfg.Dataset.Sheet
		}
		var err error
		table, err = dataset.Load(path, dataset.Options{Sheet: sheet})
		if err != nil {
			return eris.Wrap(err, "import: load dataset")
		}
		source = filepath.Base(path)
		if rawURL != "" {
			source = rawURL
		}
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "import: open store")
	}
	defer st.Close() //nolint:errcheck

	imp, err := st.ReplaceCrops(ctx, source, table)
	if err != nil {
		return eris.Wrap(err, "import: replace crops")
	}

	zap.L().Info("import complete",
		zap.String("id", imp.ID),
		zap.String("source", imp.Source),
		zap.Int("records", imp.Records),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d crops from %s (import %s)\n", imp.Records, imp.Source, imp.ID)
	return nil
}
