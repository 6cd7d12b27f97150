package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := Layout{WorkDir: "/work"}
	require.Equal(t, filepath.Join("/work", "data"), l.DataDir())
	require.Equal(t, filepath.Join("/work", "results", "metrics.csv"), l.MetricsPath())
	require.Equal(t, filepath.Join("/work", "results", "parquet_variants.json"), l.ManifestPath())
	require.Equal(t, filepath.Join("/work", "results", "PROVENANCE.json"), l.ProvenancePath())
	require.Equal(t, filepath.Join("/work", "profiling"), l.ProfilingDir())
}

func TestRowFormatPath(t *testing.T) {
	l := Layout{WorkDir: "/work"}

	csvPath, err := l.RowFormatPath("csv")
	require.NoError(t, err)
	require.Equal(t, l.CSVPath(), csvPath)

	jsonPath, err := l.RowFormatPath("ndjson")
	require.NoError(t, err)
	require.Equal(t, l.NDJSONPath(), jsonPath)

	_, err = l.RowFormatPath("parquet")
	require.Error(t, err)
}
