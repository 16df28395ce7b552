package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crop-advisor",
	Short: "Recommend crops from soil measurements",
	Long: `Matches soil pH, nitrogen, phosphorus, potassium and soil type against a
reference table of crop tolerance ranges. Exact range matches come first; when
none exist the closest crops by weighted distance are suggested instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logLevel, _ := cmd.Flags().GetString("log-level")
		c, err := setupRuntime(logLevel)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
}

// setupRuntime loads configuration, applies a non-empty log level override
// and installs the global logger.
func setupRuntime(logLevel string) (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "root: load config")
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := config.InitLogger(c.Log); err != nil {
		return nil, eris.Wrap(err, "root: init logger")
	}

	zap.L().Debug("root: config loaded",
		zap.String("store_driver", c.Store.Driver),
		zap.String("dataset", c.Dataset.Path),
	)
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
