package calibrate

import (
	"context"
	"fmt"
	"log"

	"github.com/ankitjoshi14/FormatBench/internal/zonemap"
)

// QuantileRunner is the slice of the execution engine calibration needs.
type QuantileRunner interface {
	QuantileDate(ctx context.Context, src, column string, f float64) (string, error)
}

// Error is fatal for a run: every matrix cell depends on the calibrated
// predicates, so there is nothing useful to continue with.
type Error struct {
	Fraction float64
	Src      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("calibrate: fraction %v over %s: %v", e.Fraction, e.Src, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cutoff is one calibrated selectivity target: the quantile date as the
// SQL literal the benchmark queries embed, and as the typed threshold
// the pruning estimator compares against.
type Cutoff struct {
	Fraction float64
	Date     string
	Value    zonemap.Value
}

// Predicate binds the cutoff as "column < cutoff".
func (c Cutoff) Predicate(column string) zonemap.Predicate {
	return zonemap.LessThan(column, c.Value)
}

// Calibrate maps each target fraction to the value at that quantile of
// column over src. The same cutoffs are reused across every storage
// variant in a run, so a given fraction means the same predicate
// everywhere; the actual matching fraction may drift slightly between
// variants with different row ordering, which is expected.
func Calibrate(ctx context.Context, runner QuantileRunner, src, column string, fractions []float64) (map[float64]Cutoff, error) {
	out := make(map[float64]Cutoff, len(fractions))
	for _, f := range fractions {
		date, err := runner.QuantileDate(ctx, src, column, f)
		if err != nil {
			return nil, &Error{Fraction: f, Src: src, Err: err}
		}
		value, ok := zonemap.ParseDate(date)
		if !ok {
			return nil, &Error{Fraction: f, Src: src, Err: fmt.Errorf("engine returned %q, want YYYY-MM-DD", date)}
		}
		out[f] = Cutoff{Fraction: f, Date: date, Value: value}
		log.Printf("calibrate: selectivity %v -> %s < DATE '%s'", f, column, date)
	}
	return out, nil
}
