package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Columns is the result table header, in order. Row identity first,
// aggregates second, accounting last.
var Columns = []string{
	"query", "format", "selectivity", "row_group_mb", "compression",
	"column_mode", "sorted", "runs", "p50_ms", "p95_ms",
	"bytes_scanned", "units_total", "units_scanned", "pushdown_hit",
	"cols_projected",
}

// WriteTable writes the result table as CSV, one row per record, in
// record order. Re-running a matrix rewrites the whole file.
func WriteTable(path string, records []MetricRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("results: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return fmt.Errorf("results: write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.row()); err != nil {
			f.Close()
			return fmt.Errorf("results: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("results: flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("results: close %s: %w", path, err)
	}
	return nil
}

func (r MetricRecord) row() []string {
	return []string{
		r.Query,
		r.Format,
		floatCell(r.Selectivity),
		intCell(r.RowGroupMB),
		stringCell(r.Compression),
		r.ColumnMode,
		boolCell(r.Sorted),
		strconv.Itoa(r.Runs),
		strconv.FormatFloat(r.P50MS, 'f', 2, 64),
		strconv.FormatFloat(r.P95MS, 'f', 2, 64),
		int64Cell(r.BytesScanned),
		intCell(r.UnitsTotal),
		intCell(r.UnitsScanned),
		boolCell(r.PushdownHit),
		intCell(r.ColsProjected),
	}
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func int64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func stringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func boolCell(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
