package config

import (
	"fmt"
	"path/filepath"
)

// Layout resolves the fixed working-directory structure shared by the
// materializer and the runner: data/ holds generated inputs, results/
// holds manifests and the metric table, profiling/ holds per-trial
// engine diagnostics.
type Layout struct {
	WorkDir string
}

func (l Layout) DataDir() string      { return filepath.Join(l.WorkDir, "data") }
func (l Layout) ResultsDir() string   { return filepath.Join(l.WorkDir, "results") }
func (l Layout) ProfilingDir() string { return filepath.Join(l.WorkDir, "profiling") }

func (l Layout) CSVPath() string    { return filepath.Join(l.DataDir(), "lineitem.csv") }
func (l Layout) NDJSONPath() string { return filepath.Join(l.DataDir(), "lineitem.ndjson") }

// BaselinePath is the reference parquet file written once per dataset,
// used when no variant exists yet.
func (l Layout) BaselinePath() string {
	return filepath.Join(l.DataDir(), "lineitem_baseline.parquet")
}

func (l Layout) ManifestPath() string   { return filepath.Join(l.ResultsDir(), "parquet_variants.json") }
func (l Layout) MetricsPath() string    { return filepath.Join(l.ResultsDir(), "metrics.csv") }
func (l Layout) ProvenancePath() string { return filepath.Join(l.ResultsDir(), "PROVENANCE.json") }

// RowFormatPath locates the single data file for a non-parquet format.
func (l Layout) RowFormatPath(format string) (string, error) {
	switch format {
	case "csv":
		return l.CSVPath(), nil
	case "ndjson":
		return l.NDJSONPath(), nil
	}
	return "", fmt.Errorf("config: no data file for format %q", format)
}
