package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		p    float64
		want float64
	}{
		{"median of five", []float64{10, 20, 30, 40, 50}, 50, 30},
		{"p95 interpolates", []float64{10, 20, 30, 40, 50}, 95, 48},
		{"single sample", []float64{42}, 95, 42},
		{"median of two", []float64{10, 20}, 50, 15},
		{"p95 of four", []float64{1, 2, 3, 4}, 95, 3.85},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Percentile(tc.vals, tc.p)
			require.True(t, ok)
			require.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestPercentileOrderIndependent(t *testing.T) {
	shuffled := []float64{40, 10, 50, 30, 20}
	got, ok := Percentile(shuffled, 95)
	require.True(t, ok)
	require.InDelta(t, 48, got, 1e-9)
	// input must not be reordered in place
	require.Equal(t, []float64{40, 10, 50, 30, 20}, shuffled)
}

func TestPercentileEmpty(t *testing.T) {
	_, ok := Percentile(nil, 50)
	require.False(t, ok)
}

func TestReduce(t *testing.T) {
	rec, ok := Reduce(MetricRecord{Query: "q1_filter_agg", Format: "parquet"}, []float64{12.344, 10, 11})
	require.True(t, ok)
	require.Equal(t, "q1_filter_agg", rec.Query)
	require.Equal(t, 3, rec.Runs)
	require.Equal(t, 11.0, rec.P50MS)
	require.Equal(t, 12.21, rec.P95MS)
}

func TestReduceNoSurvivors(t *testing.T) {
	_, ok := Reduce(MetricRecord{Query: "q1_filter_agg"}, nil)
	require.False(t, ok)
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func i64p(v int64) *int64   { return &v }
func sp(v string) *string   { return &v }
func bp(v bool) *bool       { return &v }

func TestWriteTable(t *testing.T) {
	records := []MetricRecord{
		{
			Query: "q1_filter_agg", Format: "parquet",
			Selectivity: fp(0.01), RowGroupMB: ip(4), Compression: sp("ZSTD"),
			ColumnMode: "n/a", Sorted: bp(true),
			Runs: 5, P50MS: 12.34, P95MS: 15,
			BytesScanned: i64p(1048576), UnitsTotal: ip(31), UnitsScanned: ip(2),
			PushdownHit: bp(true),
		},
		{
			Query: "q2_projection", Format: "parquet",
			RowGroupMB: ip(16), Compression: sp("SNAPPY"),
			ColumnMode: "narrow", Sorted: bp(false),
			Runs: 5, P50MS: 8, P95MS: 9.1,
			ColsProjected: ip(3),
		},
		{
			Query: "q1_filter_agg", Format: "csv",
			Selectivity: fp(0.5), ColumnMode: "n/a",
			Runs: 5, P50MS: 100, P95MS: 120,
			BytesScanned: i64p(754974720),
		},
	}

	path := filepath.Join(t.TempDir(), "results", "metrics.csv")
	require.NoError(t, WriteTable(path, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "query,format,selectivity,row_group_mb,compression,column_mode,sorted,runs,p50_ms,p95_ms,bytes_scanned,units_total,units_scanned,pushdown_hit,cols_projected\n" +
		"q1_filter_agg,parquet,0.01,4,ZSTD,n/a,true,5,12.34,15.00,1048576,31,2,true,\n" +
		"q2_projection,parquet,,16,SNAPPY,narrow,false,5,8.00,9.10,,,,,3\n" +
		"q1_filter_agg,csv,0.5,,,n/a,,5,100.00,120.00,754974720,,,,\n"
	require.Equal(t, want, string(raw))
}
