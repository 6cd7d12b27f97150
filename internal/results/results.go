package results

import (
	"math"
	"sort"
)

// MetricRecord is one row of the final result table: the aggregate of
// every surviving repetition of one matrix cell. Pointer fields are
// nullable columns; nil means "not applicable" and is written as an
// empty cell, never as zero.
type MetricRecord struct {
	Query         string
	Format        string
	Selectivity   *float64
	RowGroupMB    *int
	Compression   *string
	ColumnMode    string
	Sorted        *bool
	Runs          int
	P50MS         float64
	P95MS         float64
	BytesScanned  *int64
	UnitsTotal    *int
	UnitsScanned  *int
	PushdownHit   *bool
	ColsProjected *int
}

// Percentile returns the linear-interpolation percentile of vals: the
// rank p/100*(n-1) is split between its two bracketing sorted samples.
// ok is false for an empty input.
func Percentile(vals []float64, p float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], true
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo)), true
}

// Reduce fills rec's aggregate fields from the cell's surviving trial
// timings, in milliseconds. ok is false when nothing survived: such a
// cell yields no row at all and must be reported as a failure instead.
func Reduce(rec MetricRecord, millis []float64) (MetricRecord, bool) {
	p50, ok := Percentile(millis, 50)
	if !ok {
		return MetricRecord{}, false
	}
	p95, _ := Percentile(millis, 95)

	rec.Runs = len(millis)
	rec.P50MS = round2(p50)
	rec.P95MS = round2(p95)
	return rec, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
