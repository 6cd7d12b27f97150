package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func validConfig() *Config {
	return &Config{
		Dataset: Dataset{TPCHScale: 1},
		Formats: []string{"parquet", "csv", "ndjson"},
		ParquetVariants: ParquetVariants{
			RowGroupMB:  []int{4, 16, 64},
			Compression: []string{"ZSTD", "SNAPPY", "NONE"},
		},
		Selectivities: []float64{0.01, 0.1, 0.5},
		RunsPerCase:   5,
		NoSargYear:    1996,
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
dataset:
  tpch_scale: 0.1
formats: [parquet, csv]
parquet_variants:
  row_group_mb: [4, 64]
  compression: [ZSTD, NONE]
selectivities: [0.01, 0.5]
runs_per_case: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.1, cfg.Dataset.TPCHScale)
	require.Equal(t, []string{"parquet", "csv"}, cfg.Formats)
	require.Equal(t, []int{4, 64}, cfg.ParquetVariants.RowGroupMB)
	require.Equal(t, []string{"ZSTD", "NONE"}, cfg.ParquetVariants.Compression)
	require.Equal(t, []float64{0.01, 0.5}, cfg.Selectivities)
	require.Equal(t, 3, cfg.RunsPerCase)
	require.Equal(t, DefaultNoSargYear, cfg.NoSargYear)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
formats: [csv]
selectivities: [0.5]
selectivites_typo: [0.5]
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: parse")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero scale", func(c *Config) { c.Dataset.TPCHScale = 0 }, "tpch_scale"},
		{"no formats", func(c *Config) { c.Formats = nil }, "formats"},
		{"unknown format", func(c *Config) { c.Formats = []string{"orc"} }, `unknown format "orc"`},
		{"parquet without sizes", func(c *Config) { c.ParquetVariants.RowGroupMB = nil }, "row_group_mb"},
		{"parquet without codecs", func(c *Config) { c.ParquetVariants.Compression = nil }, "compression"},
		{"negative size", func(c *Config) { c.ParquetVariants.RowGroupMB = []int{-4} }, "positive"},
		{"unknown codec", func(c *Config) { c.ParquetVariants.Compression = []string{"LZO"} }, `codec "LZO"`},
		{"no selectivities", func(c *Config) { c.Selectivities = nil }, "selectivities"},
		{"selectivity at zero", func(c *Config) { c.Selectivities = []float64{0} }, "(0, 1)"},
		{"selectivity at one", func(c *Config) { c.Selectivities = []float64{1} }, "(0, 1)"},
		{"zero runs", func(c *Config) { c.RunsPerCase = 0 }, "runs_per_case"},
		{"two-digit year", func(c *Config) { c.NoSargYear = 96 }, "nosarg_year"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	cfg := validConfig()
	require.True(t, cfg.HasParquet())
	require.Equal(t, []string{"csv", "ndjson"}, cfg.RowFormats())

	cfg.Formats = []string{"csv"}
	require.False(t, cfg.HasParquet())
	require.Equal(t, []string{"csv"}, cfg.RowFormats())
}
