package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied before decoding, so a sparse file still yields a
// runnable matrix.
const (
	DefaultTPCHScale   = 1.0
	DefaultRunsPerCase = 5
	DefaultNoSargYear  = 1996
)

// Config declares one benchmark run: the dataset to generate, the storage
// variants to materialize, and the query matrix to time against them.
type Config struct {
	Dataset         Dataset         `yaml:"dataset"`
	Formats         []string        `yaml:"formats"`
	ParquetVariants ParquetVariants `yaml:"parquet_variants"`
	Selectivities   []float64       `yaml:"selectivities"`
	RunsPerCase     int             `yaml:"runs_per_case"`
	NoSargYear      int             `yaml:"nosarg_year"`
}

// Dataset selects the TPC-H generation scale.
type Dataset struct {
	TPCHScale float64 `yaml:"tpch_scale"`
}

// ParquetVariants spans the parquet side of the matrix: one variant per
// (row_group_mb, compression) pair, materialized both sorted and unsorted.
type ParquetVariants struct {
	RowGroupMB  []int    `yaml:"row_group_mb"`
	Compression []string `yaml:"compression"`
}

// Load reads one YAML file, rejecting unknown keys so typos fail at
// startup instead of silently running a different matrix.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{
		Dataset:     Dataset{TPCHScale: DefaultTPCHScale},
		RunsPerCase: DefaultRunsPerCase,
		NoSargYear:  DefaultNoSargYear,
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	log.Printf("config: loaded %s: formats=%v row_group_mb=%v compression=%v selectivities=%v runs_per_case=%d",
		path, cfg.Formats, cfg.ParquetVariants.RowGroupMB, cfg.ParquetVariants.Compression, cfg.Selectivities, cfg.RunsPerCase)
	return cfg, nil
}

// Validate checks every knob the matrix depends on. It is called by Load
// and again by commands that build a Config in code.
func (c *Config) Validate() error {
	if c.Dataset.TPCHScale <= 0 {
		return fmt.Errorf("dataset.tpch_scale must be positive, got %v", c.Dataset.TPCHScale)
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("formats must list at least one of parquet, csv, ndjson")
	}
	for _, f := range c.Formats {
		switch f {
		case "parquet", "csv", "ndjson":
		default:
			return fmt.Errorf("unknown format %q", f)
		}
	}
	if c.HasParquet() {
		if len(c.ParquetVariants.RowGroupMB) == 0 {
			return fmt.Errorf("parquet_variants.row_group_mb must not be empty")
		}
		if len(c.ParquetVariants.Compression) == 0 {
			return fmt.Errorf("parquet_variants.compression must not be empty")
		}
	}
	for _, mb := range c.ParquetVariants.RowGroupMB {
		if mb <= 0 {
			return fmt.Errorf("parquet_variants.row_group_mb entries must be positive, got %d", mb)
		}
	}
	for _, codec := range c.ParquetVariants.Compression {
		switch strings.ToUpper(codec) {
		case "ZSTD", "SNAPPY", "GZIP", "NONE":
		default:
			return fmt.Errorf("unknown compression codec %q", codec)
		}
	}
	if len(c.Selectivities) == 0 {
		return fmt.Errorf("selectivities must not be empty")
	}
	for _, s := range c.Selectivities {
		if s <= 0 || s >= 1 {
			return fmt.Errorf("selectivities must lie in (0, 1), got %v", s)
		}
	}
	if c.RunsPerCase < 1 {
		return fmt.Errorf("runs_per_case must be at least 1, got %d", c.RunsPerCase)
	}
	if c.NoSargYear < 1000 || c.NoSargYear > 9999 {
		return fmt.Errorf("nosarg_year must be a four-digit year, got %d", c.NoSargYear)
	}
	return nil
}

// HasParquet reports whether the parquet variant matrix is in play.
func (c *Config) HasParquet() bool {
	for _, f := range c.Formats {
		if f == "parquet" {
			return true
		}
	}
	return false
}

// RowFormats returns the configured non-parquet formats in config order.
func (c *Config) RowFormats() []string {
	var out []string
	for _, f := range c.Formats {
		if f != "parquet" {
			out = append(out, f)
		}
	}
	return out
}
