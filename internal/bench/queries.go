package bench

import (
	"fmt"
	"strings"
)

// Query shape names, as written to the result table.
const (
	QueryFilterAgg  = "q1_filter_agg"
	QueryNoSarg     = "q1_nosarg"
	QueryProjection = "q2_projection"
	QueryScanGroup  = "q3_scan_group"
)

// Column modes for the result table. Only projections distinguish them.
const (
	ColumnModeNA     = "n/a"
	ColumnModeNarrow = "narrow"
	ColumnModeWide   = "wide"
)

// ShipDateColumn is the column every filter and sort in the benchmark
// targets.
const ShipDateColumn = "l_shipdate"

// Projection column sets for the narrow and wide q2 variants.
var (
	NarrowColumns = []string{"l_orderkey", "l_partkey", "l_extendedprice"}
	WideColumns = []string{
		"l_orderkey", "l_partkey", "l_suppkey", "l_linenumber", "l_quantity",
		"l_extendedprice", "l_discount", "l_tax", "l_returnflag",
		"l_linestatus", "l_shipdate", "l_commitdate",
	}
)

// SourceExpr returns the engine's table-function call reading one file.
func SourceExpr(format, path string) (string, error) {
	switch format {
	case "parquet":
		return fmt.Sprintf("read_parquet('%s')", path), nil
	case "csv":
		return fmt.Sprintf("read_csv_auto('%s')", path), nil
	case "ndjson":
		return fmt.Sprintf("read_json_auto('%s')", path), nil
	}
	return "", fmt.Errorf("bench: no source expression for format %q", format)
}

// ShipDateExpr normalizes l_shipdate for formats whose readers may not
// surface it as DATE. NDJSON can carry epoch-millisecond integers or
// ISO strings depending on how the file was produced.
func ShipDateExpr(format string) string {
	if format == "ndjson" {
		return "CASE WHEN typeof(l_shipdate) = 'BIGINT' " +
			"THEN CAST(to_timestamp(l_shipdate::DOUBLE / 1000.0) AS DATE) " +
			"ELSE CAST(l_shipdate AS DATE) END"
	}
	return ShipDateColumn
}

// FilterAggSQL is q1: an aggregate under a sargable date filter.
func FilterAggSQL(src, shipdateExpr, cutoffDate string) string {
	return fmt.Sprintf("SELECT SUM(l_extendedprice) FROM %s WHERE %s < DATE '%s'", src, shipdateExpr, cutoffDate)
}

// NoSargSQL is the full-scan control: the date filter wrapped in a
// string rendering, which defeats statistics-based pruning.
func NoSargSQL(src, shipdateExpr string, year int) string {
	return fmt.Sprintf("SELECT SUM(l_extendedprice) FROM %s WHERE strftime(%s, '%%Y-%%m-%%d') LIKE '%d-%%'", src, shipdateExpr, year)
}

// ProjectionSQL is q2: read the given columns, no filter.
func ProjectionSQL(src string, columns []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), src)
}

// ScanGroupSQL is q3: a full scan with a small-cardinality GROUP BY.
func ScanGroupSQL(src string) string {
	return fmt.Sprintf("SELECT l_returnflag, l_linestatus, "+
		"SUM(l_quantity) AS sum_qty, "+
		"SUM(l_extendedprice) AS sum_base_price, "+
		"COUNT(*) AS cnt "+
		"FROM %s GROUP BY l_returnflag, l_linestatus", src)
}
