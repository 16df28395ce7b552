package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/matcher"
)

// useTestConfig installs a config whose store points at a missing SQLite
// file, so commands fall back to the built-in sample table.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "crops.db"),
		},
		Matcher: matcher.DefaultConfig(),
		Server: config.ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

// execute runs a fresh command built by newCmd, capturing its output.
func execute(t *testing.T, newCmd func() *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "recommend", RunE: runRecommend, SilenceUsage: true}
	addRecommendFlags(cmd)
	return cmd
}

const testCSV = `Crop,Soil_Type,pH_min,pH_max,N_min,N_max,P_min,P_max,K_min,K_max
Rice,Clayey,5.5,7.0,80,120,30,50,30,60
`

func writeTestDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crop_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))
	return path
}
