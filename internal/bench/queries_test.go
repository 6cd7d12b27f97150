package bench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceExpr(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"parquet", "read_parquet('/data/lineitem.parquet')"},
		{"csv", "read_csv_auto('/data/lineitem.parquet')"},
		{"ndjson", "read_json_auto('/data/lineitem.parquet')"},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			got, err := SourceExpr(tc.format, "/data/lineitem.parquet")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := SourceExpr("orc", "/data/x")
	require.Error(t, err)
}

func TestShipDateExpr(t *testing.T) {
	require.Equal(t, "l_shipdate", ShipDateExpr("parquet"))
	require.Equal(t, "l_shipdate", ShipDateExpr("csv"))

	ndjson := ShipDateExpr("ndjson")
	require.Contains(t, ndjson, "typeof(l_shipdate) = 'BIGINT'")
	require.Contains(t, ndjson, "to_timestamp(l_shipdate::DOUBLE / 1000.0)")
	require.Contains(t, ndjson, "CAST(l_shipdate AS DATE)")
}

func TestFilterAggSQL(t *testing.T) {
	got := FilterAggSQL("read_csv_auto('x.csv')", "l_shipdate", "1995-06-17")
	require.Equal(t, "SELECT SUM(l_extendedprice) FROM read_csv_auto('x.csv') WHERE l_shipdate < DATE '1995-06-17'", got)
}

func TestNoSargSQL(t *testing.T) {
	got := NoSargSQL("read_parquet('x.parquet')", "l_shipdate", 1996)
	require.Equal(t, "SELECT SUM(l_extendedprice) FROM read_parquet('x.parquet') WHERE strftime(l_shipdate, '%Y-%m-%d') LIKE '1996-%'", got)
}

func TestProjectionSQL(t *testing.T) {
	got := ProjectionSQL("read_parquet('x.parquet')", NarrowColumns)
	require.Equal(t, "SELECT l_orderkey, l_partkey, l_extendedprice FROM read_parquet('x.parquet')", got)

	require.Len(t, NarrowColumns, 3)
	require.Len(t, WideColumns, 12)
}

func TestScanGroupSQL(t *testing.T) {
	got := ScanGroupSQL("read_parquet('x.parquet')")
	require.Contains(t, got, "SELECT l_returnflag, l_linestatus")
	require.Contains(t, got, "GROUP BY l_returnflag, l_linestatus")
	require.Contains(t, got, "COUNT(*) AS cnt")
}
