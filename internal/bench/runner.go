package bench

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ankitjoshi14/FormatBench/internal/calibrate"
	"github.com/ankitjoshi14/FormatBench/internal/config"
	"github.com/ankitjoshi14/FormatBench/internal/manifest"
	"github.com/ankitjoshi14/FormatBench/internal/metrics"
	"github.com/ankitjoshi14/FormatBench/internal/results"
	"github.com/ankitjoshi14/FormatBench/internal/zonemap"
)

// Executor is the runner's view of the execution engine: submit one
// query, point engine diagnostics at a file, get the elapsed wall time.
type Executor interface {
	Execute(ctx context.Context, query, profilePath string) (time.Duration, error)
}

// CellFailure records one failed repetition. Rep is -1 when the cell
// failed before any repetition could run.
type CellFailure struct {
	Cell string
	Rep  int
	Err  string
}

// SkippedVariant records a parquet variant whose file metadata could
// not be read. None of its cells execute; the gap surfaces in the run
// report instead of being retried.
type SkippedVariant struct {
	Variant string
	Err     string
}

// Summary is everything one matrix run produced: aggregated records in
// enumeration order, plus what failed or was skipped along the way.
type Summary struct {
	Records  []results.MetricRecord
	Failures []CellFailure
	Skipped  []SkippedVariant
}

// Progress is a point-in-time snapshot of a run, served by the status
// endpoint while the matrix executes.
type Progress struct {
	CellsTotal     int    `json:"cells_total"`
	CellsCompleted int    `json:"cells_completed"`
	CellsFailed    int    `json:"cells_failed"`
	CellsSkipped   int    `json:"cells_skipped"`
	TrialsRun      int    `json:"trials_run"`
	Current        string `json:"current,omitempty"`
}

// Runner drives the benchmark matrix strictly sequentially: variants in
// manifest order, then row formats in config order, repetitions within
// each cell. The engine session is shared mutable state, so no two
// trials ever overlap; sequencing is what keeps timings comparable.
type Runner struct {
	exec     Executor
	cfg      *config.Config
	layout   config.Layout
	variants []manifest.Variant
	cutoffs  map[float64]calibrate.Cutoff

	// swappable for tests; defaults to zonemap.Load
	loadUnits func(path string) ([]zonemap.StorageUnit, error)

	mu       sync.Mutex
	progress Progress
}

// New assembles a Runner over an already calibrated cutoff set. The
// variant list is ignored when the config has no parquet format.
func New(exec Executor, cfg *config.Config, layout config.Layout, variants []manifest.Variant, cutoffs map[float64]calibrate.Cutoff) *Runner {
	r := &Runner{
		exec:      exec,
		cfg:       cfg,
		layout:    layout,
		variants:  variants,
		cutoffs:   cutoffs,
		loadUnits: zonemap.Load,
	}
	if !cfg.HasParquet() {
		r.variants = nil
	}
	r.progress.CellsTotal = len(r.variants)*r.cellsPerVariant() + len(cfg.RowFormats())*r.cellsPerRowFormat()
	return r
}

// q1 per selectivity, nosarg, two projections, scan+group
func (r *Runner) cellsPerVariant() int { return len(r.cfg.Selectivities) + 4 }

// row formats run no nosarg control: they have no statistics to defeat
func (r *Runner) cellsPerRowFormat() int { return len(r.cfg.Selectivities) + 3 }

// Progress returns a snapshot safe to read while the run executes.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Run executes every cell and returns the summary. It stops early only
// on context cancellation; cell-local errors are recorded and the next
// cell proceeds.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	for _, sel := range r.cfg.Selectivities {
		if _, ok := r.cutoffs[sel]; !ok {
			return nil, fmt.Errorf("bench: no cutoff calibrated for selectivity %v", sel)
		}
	}

	summary := &Summary{}
	for _, v := range r.variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		units, err := r.loadUnits(v.Resolve(r.layout.WorkDir))
		if err != nil {
			log.Printf("bench: skipping variant %s: %v", v.Label(), err)
			summary.Skipped = append(summary.Skipped, SkippedVariant{Variant: v.Label(), Err: err.Error()})
			metrics.VariantsSkipped.Inc()
			r.addSkipped(r.cellsPerVariant())
			continue
		}
		cells, err := r.variantCells(v, units)
		if err != nil {
			return nil, err
		}
		for _, c := range cells {
			if err := r.runCell(ctx, c, summary); err != nil {
				return nil, err
			}
		}
	}

	for _, format := range r.cfg.RowFormats() {
		cells, err := r.rowFormatCells(format)
		if err != nil {
			return nil, err
		}
		for _, c := range cells {
			if err := r.runCell(ctx, c, summary); err != nil {
				return nil, err
			}
		}
	}

	r.setCurrent("")
	return summary, nil
}

// cell is one matrix cell, fully determined before execution: identity
// and scan accounting in the record prototype, the SQL to run, and the
// diagnostic directory name.
type cell struct {
	label string
	sql   string
	rec   results.MetricRecord
}

func (r *Runner) runCell(ctx context.Context, c cell, summary *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.setCurrent(c.label)

	dir := filepath.Join(r.layout.ProfilingDir(), c.label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("bench: %s: create profile dir: %v", c.label, err)
		summary.Failures = append(summary.Failures, CellFailure{Cell: c.label, Rep: -1, Err: err.Error()})
		r.finishCell(false)
		return nil
	}

	var millis []float64
	clean := true
	for rep := 0; rep < r.cfg.RunsPerCase; rep++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		profile := filepath.Join(dir, fmt.Sprintf("run%d.json", rep))
		elapsed, err := r.exec.Execute(ctx, c.sql, profile)
		metrics.TrialsRun.Inc()
		r.addTrial()
		if err != nil {
			clean = false
			metrics.TrialFailures.Inc()
			log.Printf("bench: %s run %d: %v", c.label, rep, err)
			summary.Failures = append(summary.Failures, CellFailure{Cell: c.label, Rep: rep, Err: err.Error()})
			continue
		}
		millis = append(millis, float64(elapsed.Nanoseconds())/1e6)
	}

	if rec, ok := results.Reduce(c.rec, millis); ok {
		summary.Records = append(summary.Records, rec)
		log.Printf("bench: %s p50=%.2fms p95=%.2fms runs=%d", c.label, rec.P50MS, rec.P95MS, rec.Runs)
	} else {
		log.Printf("bench: %s produced no record: every repetition failed", c.label)
	}
	r.finishCell(clean)
	return nil
}

type projectionMode struct {
	name    string
	columns []string
}

func projectionModes() []projectionMode {
	return []projectionMode{
		{ColumnModeNarrow, NarrowColumns},
		{ColumnModeWide, WideColumns},
	}
}

func (r *Runner) variantCells(v manifest.Variant, units []zonemap.StorageUnit) ([]cell, error) {
	src, err := SourceExpr("parquet", v.Resolve(r.layout.WorkDir))
	if err != nil {
		return nil, err
	}
	ship := ShipDateExpr("parquet")
	base := "parquet_" + v.Label()

	mb := v.RowGroupMBTarget
	codec := v.Compression
	sorted := v.Sorted

	var cells []cell
	for _, sel := range r.cfg.Selectivities {
		cutoff := r.cutoffs[sel]
		est := zonemap.EstimateScan(units, cutoff.Predicate(ShipDateColumn))
		scannedBytes := est.ScannedBytes
		unitsTotal := est.TotalUnits
		unitsScanned := est.ScannedUnits()
		hit := unitsScanned < unitsTotal
		cells = append(cells, cell{
			label: fmt.Sprintf("%s_sel%d", base, selPercent(sel)),
			sql:   FilterAggSQL(src, ship, cutoff.Date),
			rec: results.MetricRecord{
				Query:        QueryFilterAgg,
				Format:       "parquet",
				Selectivity:  &sel,
				RowGroupMB:   &mb,
				Compression:  &codec,
				ColumnMode:   ColumnModeNA,
				Sorted:       &sorted,
				BytesScanned: &scannedBytes,
				UnitsTotal:   &unitsTotal,
				UnitsScanned: &unitsScanned,
				PushdownHit:  &hit,
			},
		})
	}

	// the pattern form scans everything, so its estimate doubles as the
	// file totals
	est := zonemap.EstimateScan(units, zonemap.PatternMatch(ShipDateColumn, fmt.Sprintf("%d-%%", r.cfg.NoSargYear)))
	totalBytes := est.TotalBytes
	unitsTotal := est.TotalUnits
	unitsScanned := est.ScannedUnits()
	noHit := false
	cells = append(cells, cell{
		label: base + "_nosarg",
		sql:   NoSargSQL(src, ship, r.cfg.NoSargYear),
		rec: results.MetricRecord{
			Query:        QueryNoSarg,
			Format:       "parquet",
			RowGroupMB:   &mb,
			Compression:  &codec,
			ColumnMode:   ColumnModeNA,
			Sorted:       &sorted,
			BytesScanned: &totalBytes,
			UnitsTotal:   &unitsTotal,
			UnitsScanned: &unitsScanned,
			PushdownHit:  &noHit,
		},
	})

	for _, mode := range projectionModes() {
		cols := len(mode.columns)
		cells = append(cells, cell{
			label: fmt.Sprintf("%s_q2_%s", base, mode.name),
			sql:   ProjectionSQL(src, mode.columns),
			rec: results.MetricRecord{
				Query:         QueryProjection,
				Format:        "parquet",
				RowGroupMB:    &mb,
				Compression:   &codec,
				ColumnMode:    mode.name,
				Sorted:        &sorted,
				ColsProjected: &cols,
			},
		})
	}

	cells = append(cells, cell{
		label: base + "_q3",
		sql:   ScanGroupSQL(src),
		rec: results.MetricRecord{
			Query:       QueryScanGroup,
			Format:      "parquet",
			RowGroupMB:  &mb,
			Compression: &codec,
			ColumnMode:  ColumnModeNA,
			Sorted:      &sorted,
		},
	})
	return cells, nil
}

func (r *Runner) rowFormatCells(format string) ([]cell, error) {
	path, err := r.layout.RowFormatPath(format)
	if err != nil {
		return nil, err
	}
	src, err := SourceExpr(format, path)
	if err != nil {
		return nil, err
	}
	ship := ShipDateExpr(format)

	// whole-file reads: bytes scanned is the file size, there are no
	// units to account
	var size *int64
	if st, err := os.Stat(path); err == nil {
		n := st.Size()
		size = &n
	} else {
		log.Printf("bench: stat %s: %v", path, err)
	}

	var cells []cell
	for _, sel := range r.cfg.Selectivities {
		cutoff := r.cutoffs[sel]
		cells = append(cells, cell{
			label: fmt.Sprintf("%s_sel%d", format, selPercent(sel)),
			sql:   FilterAggSQL(src, ship, cutoff.Date),
			rec: results.MetricRecord{
				Query:        QueryFilterAgg,
				Format:       format,
				Selectivity:  &sel,
				ColumnMode:   ColumnModeNA,
				BytesScanned: size,
			},
		})
	}
	for _, mode := range projectionModes() {
		cols := len(mode.columns)
		cells = append(cells, cell{
			label: fmt.Sprintf("%s_q2_%s", format, mode.name),
			sql:   ProjectionSQL(src, mode.columns),
			rec: results.MetricRecord{
				Query:         QueryProjection,
				Format:        format,
				ColumnMode:    mode.name,
				ColsProjected: &cols,
			},
		})
	}
	cells = append(cells, cell{
		label: format + "_q3",
		sql:   ScanGroupSQL(src),
		rec: results.MetricRecord{
			Query:      QueryScanGroup,
			Format:     format,
			ColumnMode: ColumnModeNA,
		},
	})
	return cells, nil
}

func selPercent(sel float64) int {
	return int(math.Round(sel * 100))
}

func (r *Runner) setCurrent(label string) {
	r.mu.Lock()
	r.progress.Current = label
	r.mu.Unlock()
}

func (r *Runner) addTrial() {
	r.mu.Lock()
	r.progress.TrialsRun++
	r.mu.Unlock()
}

func (r *Runner) addSkipped(cells int) {
	r.mu.Lock()
	r.progress.CellsSkipped += cells
	r.mu.Unlock()
}

func (r *Runner) finishCell(clean bool) {
	r.mu.Lock()
	if clean {
		r.progress.CellsCompleted++
	} else {
		r.progress.CellsFailed++
	}
	r.mu.Unlock()
	if clean {
		metrics.CellsCompleted.Inc()
	} else {
		metrics.CellsFailed.Inc()
	}
}
