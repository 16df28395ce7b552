package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crop-advisor/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the active crop table comes from",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	table, source, err := loadTable(ctx, cfg, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Active table: %s (%d crops)\n", source, len(table))

	if !storeAvailable(cfg.Store) {
		fmt.Fprintln(w, "Last import: none")
		return nil
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "status: open store")
	}
	defer st.Close() //nolint:errcheck

	imp, err := st.LastImport(ctx)
	if err != nil {
		return eris.Wrap(err, "status: last import")
	}
	if imp == nil {
		fmt.Fprintln(w, "Last import: none")
		return nil
	}
	fmt.Fprintf(w, "Last import: %s, %d crops from %s at %s\n",
		imp.ID, imp.Records, imp.Source, imp.ImportedAt.Format(time.RFC3339))
	return nil
}
