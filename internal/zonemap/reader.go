package zonemap

import (
	"encoding/binary"
	"fmt"
	"os"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
)

// MetadataError reports that a variant's Parquet footer could not be read
// or parsed. The variant is unusable for scan estimation; callers skip its
// cells instead of retrying, so a bad materialization surfaces in the run
// report.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("zonemap: unreadable parquet metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Load reads the Parquet footer of the file at path and returns one
// StorageUnit per row group, in file order. Column statistics are
// normalized into their logical domains here, once per variant, so the
// estimator never sees raw encodings. Unit byte sizes are always
// populated, statistics or not.
func Load(path string) ([]StorageUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MetadataError{Path: path, Err: err}
	}
	defer f.Close()

	md, err := goparquet.ReadFileMetaData(f, true)
	if err != nil {
		return nil, &MetadataError{Path: path, Err: err}
	}
	return unitsFromMetaData(md), nil
}

func unitsFromMetaData(md *parquet.FileMetaData) []StorageUnit {
	schema := leafSchema(md.Schema)
	units := make([]StorageUnit, 0, len(md.RowGroups))
	for i, rg := range md.RowGroups {
		unit := StorageUnit{
			Ordinal: i,
			Bytes:   rg.TotalByteSize,
			Rows:    rg.NumRows,
			Columns: make(map[string]ColumnStats, len(rg.Columns)),
		}
		for _, chunk := range rg.Columns {
			meta := chunk.MetaData
			if meta == nil || len(meta.PathInSchema) == 0 {
				continue
			}
			name := meta.PathInSchema[len(meta.PathInSchema)-1]
			stats, ok := decodeStats(schema[name], meta)
			if !ok {
				continue
			}
			unit.Columns[name] = stats
		}
		units = append(units, unit)
	}
	return units
}

// leafSchema maps column names to their schema elements. The first schema
// element is the root and carries no physical type.
func leafSchema(elems []*parquet.SchemaElement) map[string]*parquet.SchemaElement {
	out := make(map[string]*parquet.SchemaElement, len(elems))
	for _, se := range elems {
		if se == nil || se.Type == nil {
			continue
		}
		out[se.Name] = se
	}
	return out
}

// decodeStats turns one column chunk's raw statistics into typed bounds.
// Anything incomplete or undecodable counts as "no statistics": the
// estimator then scans the unit rather than guessing.
func decodeStats(se *parquet.SchemaElement, meta *parquet.ColumnMetaData) (ColumnStats, bool) {
	st := meta.Statistics
	if st == nil {
		return ColumnStats{}, false
	}
	minRaw, maxRaw := statBounds(st)
	if minRaw == nil || maxRaw == nil {
		return ColumnStats{}, false
	}
	minVal, ok := decodeBound(se, meta.Type, minRaw)
	if !ok {
		return ColumnStats{}, false
	}
	maxVal, ok := decodeBound(se, meta.Type, maxRaw)
	if !ok {
		return ColumnStats{}, false
	}
	return ColumnStats{Min: minVal, Max: maxVal}, true
}

// statBounds prefers the order-aware min_value/max_value pair and falls
// back to the deprecated min/max written by older writers.
func statBounds(st *parquet.Statistics) (minRaw, maxRaw []byte) {
	minRaw, maxRaw = st.MinValue, st.MaxValue
	if minRaw == nil || maxRaw == nil {
		minRaw, maxRaw = st.Min, st.Max
	}
	return minRaw, maxRaw
}

func decodeBound(se *parquet.SchemaElement, typ parquet.Type, raw []byte) (Value, bool) {
	switch typ {
	case parquet.Type_INT32:
		if len(raw) != 4 {
			return Value{}, false
		}
		v := int64(int32(binary.LittleEndian.Uint32(raw)))
		if isDateColumn(se) {
			return DateValue(v), true
		}
		return IntValue(v), true
	case parquet.Type_INT64:
		if len(raw) != 8 {
			return Value{}, false
		}
		return IntValue(int64(binary.LittleEndian.Uint64(raw))), true
	case parquet.Type_BYTE_ARRAY:
		// Some writers store dates as plain strings. Resolve those into
		// the date domain so they compare against calibrated cutoffs.
		s := string(raw)
		if d, ok := ParseDate(s); ok {
			return d, true
		}
		return StringValue(s), true
	default:
		return Value{}, false
	}
}

func isDateColumn(se *parquet.SchemaElement) bool {
	if se == nil {
		return false
	}
	if se.IsSetLogicalType() && se.LogicalType.IsSetDATE() {
		return true
	}
	return se.IsSetConvertedType() && se.GetConvertedType() == parquet.ConvertedType_DATE
}
