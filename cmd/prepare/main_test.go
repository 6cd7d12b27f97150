package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowsPerGroup(t *testing.T) {
	cases := []struct {
		name      string
		targetMB  int
		tableRows int64
		want      int64
	}{
		{"mapped target", 4, 6_000_000, 200_000},
		{"largest mapped target", 128, 10_000_000, 4_800_000},
		{"unmapped target uses table fraction", 7, 10_000_000, 200_000},
		{"unmapped target small table", 7, 120_000, 50_000},
		{"capped at table rows", 64, 1_000_000, 1_000_000},
		{"floor wins over tiny tables", 4, 5_000, 10_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, rowsPerGroup(tc.targetMB, tc.tableRows))
		})
	}
}

func TestVariantName(t *testing.T) {
	require.Equal(t, "lineitem.parquet.rg4mb.zstd.parquet", variantName(4, "ZSTD", false))
	require.Equal(t, "lineitem.sorted.parquet.rg16mb.none.parquet", variantName(16, "NONE", true))
}

func TestQuote(t *testing.T) {
	require.Equal(t, "/tmp/it''s.csv", quote("/tmp/it's.csv"))
}
