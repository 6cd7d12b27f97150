package zonemap

import (
	"strconv"
	"time"
)

// Kind identifies the logical domain of a statistics value.
type Kind uint8

const (
	KindInt Kind = iota
	KindDate
	KindString
)

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Value is a typed min/max bound in a column's logical domain. Dates are
// held as day counts since 1970-01-01 so that both Parquet encodings of a
// date column (INT32 day counts and YYYY-MM-DD byte arrays) collapse into
// one comparable representation.
type Value struct {
	Kind Kind
	Int  int64 // KindInt value, or day count for KindDate
	Str  string
}

func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// DateValue builds a date from a day count since 1970-01-01.
func DateValue(days int64) Value {
	return Value{Kind: KindDate, Int: days}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Value {
	y, m, d := t.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return DateValue(int64(midnight.Sub(epoch) / (24 * time.Hour)))
}

// ParseDate accepts YYYY-MM-DD. ok is false for anything else.
func ParseDate(s string) (Value, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Value{}, false
	}
	return DateOf(t), true
}

// Time returns the UTC midnight of a KindDate value. Zero time otherwise.
func (v Value) Time() time.Time {
	if v.Kind != KindDate {
		return time.Time{}
	}
	return epoch.AddDate(0, 0, int(v.Int))
}

func (v Value) String() string {
	switch v.Kind {
	case KindDate:
		return v.Time().Format("2006-01-02")
	case KindString:
		return v.Str
	default:
		return strconv.FormatInt(v.Int, 10)
	}
}

// Compare orders two values of the same kind. ok is false when the kinds
// differ; callers must treat that as "unknown", never as equality.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if v.Kind != o.Kind {
		return 0, false
	}
	switch v.Kind {
	case KindString:
		switch {
		case v.Str < o.Str:
			return -1, true
		case v.Str > o.Str:
			return 1, true
		}
		return 0, true
	default:
		switch {
		case v.Int < o.Int:
			return -1, true
		case v.Int > o.Int:
			return 1, true
		}
		return 0, true
	}
}

// ColumnStats is the min/max zone of one column within one storage unit.
type ColumnStats struct {
	Min Value
	Max Value
}

// StorageUnit is one prunable chunk of a columnar file (a Parquet row
// group). Columns holds statistics keyed by column name; a missing key
// means no statistics were recorded for that column in this unit.
type StorageUnit struct {
	Ordinal int
	Bytes   int64
	Rows    int64
	Columns map[string]ColumnStats
}

