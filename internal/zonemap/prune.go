package zonemap

// Op is the comparison form of a Predicate.
type Op uint8

const (
	// OpLess admits rows strictly below the threshold.
	OpLess Op = iota
	// OpPattern matches a string rendering of the column. It cannot be
	// tested against min/max zones, so every unit must be scanned.
	OpPattern
)

// Predicate is a single comparison against one column.
type Predicate struct {
	Column    string
	Op        Op
	Threshold Value  // OpLess
	Pattern   string // OpPattern
}

// LessThan builds the sargable form: column < threshold.
func LessThan(column string, threshold Value) Predicate {
	return Predicate{Column: column, Op: OpLess, Threshold: threshold}
}

// PatternMatch builds the non-sargable form, matching a formatted
// rendering of the column against a pattern.
func PatternMatch(column, pattern string) Predicate {
	return Predicate{Column: column, Op: OpPattern, Pattern: pattern}
}

// ScanEstimate is the outcome of testing one predicate against every
// unit of a file: which units a statistics-driven reader would still
// have to touch, and how much of the file that is.
type ScanEstimate struct {
	Units        []int // ordinals of units to scan, ascending
	ScannedBytes int64
	TotalUnits   int
	TotalBytes   int64
}

// ScannedUnits is the number of units the predicate could not rule out.
func (e ScanEstimate) ScannedUnits() int { return len(e.Units) }

// FullScan reports whether pruning eliminated nothing.
func (e ScanEstimate) FullScan() bool { return len(e.Units) == e.TotalUnits }

// EstimateScan decides, unit by unit, whether pred could match any row.
// Units appear in Units in file order, so ordinals come out ascending.
func EstimateScan(units []StorageUnit, pred Predicate) ScanEstimate {
	est := ScanEstimate{TotalUnits: len(units)}
	for _, u := range units {
		est.TotalBytes += u.Bytes
		if prunable(u, pred) {
			continue
		}
		est.Units = append(est.Units, u.Ordinal)
		est.ScannedBytes += u.Bytes
	}
	return est
}

// prunable reports whether the unit provably contains no row satisfying
// pred. Every uncertain case answers false: the estimate may overcount
// scanned units but must never claim a false prune.
func prunable(u StorageUnit, pred Predicate) bool {
	if pred.Op != OpLess {
		return false
	}
	stats, ok := u.Columns[pred.Column]
	if !ok {
		return false
	}
	cmp, ok := stats.Min.Compare(pred.Threshold)
	if !ok {
		return false
	}
	// min >= threshold leaves no room below the cutoff. Equality prunes:
	// the lowest row still fails "< threshold".
	return cmp >= 0
}
