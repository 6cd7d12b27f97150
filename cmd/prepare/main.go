package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/ankitjoshi14/FormatBench/internal/config"
	"github.com/ankitjoshi14/FormatBench/internal/engine"
	"github.com/ankitjoshi14/FormatBench/internal/manifest"
	"github.com/ankitjoshi14/FormatBench/internal/zonemap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Run configuration file")
	workDir := flag.String("workdir", ".", "Directory the dataset is materialized under")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stopCh
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	layout := config.Layout{WorkDir: *workDir}
	for _, dir := range []string{layout.DataDir(), layout.ResultsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	session, err := engine.OpenMemory(ctx)
	if err != nil {
		log.Fatalf("failed to open engine session: %v", err)
	}
	defer session.Close()

	if err := generateTPCH(ctx, session, cfg.Dataset.TPCHScale); err != nil {
		log.Fatalf("failed to generate lineitem: %v", err)
	}
	if err := emitRowFormats(ctx, session, layout); err != nil {
		log.Fatalf("failed to emit row formats: %v", err)
	}

	if cfg.HasParquet() {
		variants, err := writeVariants(ctx, session, cfg, layout)
		if err != nil {
			log.Fatalf("failed to write parquet variants: %v", err)
		}
		if err := manifest.Write(layout.ManifestPath(), variants); err != nil {
			log.Fatalf("failed to write manifest: %v", err)
		}
		log.Printf("prepare: %d variants recorded in %s", len(variants), layout.ManifestPath())
	}

	if err := writeProvenance(ctx, session, layout); err != nil {
		log.Fatalf("failed to write provenance: %v", err)
	}
	log.Println("prepare: done, see results/ for the manifest and provenance")
}

// quote escapes a path for embedding in a single-quoted SQL literal.
func quote(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "'", "''")
}

func logSize(path string) {
	if st, err := os.Stat(path); err == nil {
		log.Printf("prepare: wrote %s (%s)", path, humanize.Bytes(uint64(st.Size())))
	}
}

func generateTPCH(ctx context.Context, session *engine.Session, scale float64) error {
	log.Printf("prepare: generating lineitem at scale %v", scale)
	for _, stmt := range []string{
		"INSTALL tpch",
		"LOAD tpch",
		fmt.Sprintf("CALL dbgen(sf=%v)", scale),
	} {
		if err := session.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// emitRowFormats copies lineitem to CSV and NDJSON. Existing files are
// kept so a re-run never regenerates multi-GB outputs. The JSON copy
// carries dates as ISO strings.
func emitRowFormats(ctx context.Context, session *engine.Session, layout config.Layout) error {
	copies := []struct {
		path string
		sql  string
	}{
		{layout.CSVPath(), "COPY lineitem TO '%s' (FORMAT CSV, HEADER, DELIMITER ',')"},
		{layout.NDJSONPath(), "COPY lineitem TO '%s' (FORMAT JSON)"},
	}
	for _, c := range copies {
		if _, err := os.Stat(c.path); err == nil {
			log.Printf("prepare: %s exists, keeping it", c.path)
			continue
		}
		if err := session.Exec(ctx, fmt.Sprintf(c.sql, quote(c.path))); err != nil {
			return err
		}
		logSize(c.path)
	}
	return nil
}

// rowsPerGroup maps the size target onto a row count. The mapping is
// tuned so pruning stays observable rather than chasing the compressed
// size exactly.
func rowsPerGroup(targetMB int, tableRows int64) int64 {
	mapping := map[int]int64{
		1: 50_000, 2: 100_000,
		4: 200_000, 8: 400_000,
		16: 800_000, 32: 1_600_000,
		64: 3_200_000, 128: 4_800_000,
	}
	rows, ok := mapping[targetMB]
	if !ok {
		rows = tableRows / 50
		if rows < 50_000 {
			rows = 50_000
		}
	}
	if rows > tableRows {
		rows = tableRows
	}
	if rows < 10_000 {
		rows = 10_000
	}
	return rows
}

func variantName(mb int, codec string, sorted bool) string {
	base := "lineitem"
	if sorted {
		base += ".sorted"
	}
	return fmt.Sprintf("%s.parquet.rg%dmb.%s.parquet", base, mb, strings.ToLower(codec))
}

// copyParquet materializes a query result as one parquet file. A zero
// rowGroup leaves the engine's default row-group sizing in place.
func copyParquet(ctx context.Context, session *engine.Session, query, path, codec string, rowGroup int64) error {
	codec = strings.ToUpper(codec)
	if codec == "NONE" {
		codec = "UNCOMPRESSED"
	}
	opts := fmt.Sprintf("FORMAT PARQUET, COMPRESSION %s", codec)
	if rowGroup > 0 {
		opts += fmt.Sprintf(", ROW_GROUP_SIZE %d", rowGroup)
	}
	return session.Exec(ctx, fmt.Sprintf("COPY (%s) TO '%s' (%s)", query, quote(path), opts))
}

func tableRows(ctx context.Context, session *engine.Session) (int64, error) {
	var rows int64
	if err := session.QueryRow(ctx, "SELECT count(*) FROM lineitem").Scan(&rows); err != nil {
		return 0, fmt.Errorf("count lineitem rows: %w", err)
	}
	return rows, nil
}

// writeVariants materializes the (row_group_mb x compression) matrix,
// unsorted and sorted by l_shipdate, and returns the manifest entries.
// Row-group counts are read back from the files' own metadata.
func writeVariants(ctx context.Context, session *engine.Session, cfg *config.Config, layout config.Layout) ([]manifest.Variant, error) {
	rows, err := tableRows(ctx, session)
	if err != nil {
		return nil, err
	}
	log.Printf("prepare: lineitem has %d rows", rows)

	baseline := layout.BaselinePath()
	if _, err := os.Stat(baseline); err != nil {
		if err := copyParquet(ctx, session, "SELECT * FROM lineitem", baseline, "ZSTD", 0); err != nil {
			return nil, err
		}
		logSize(baseline)
	}

	var variants []manifest.Variant
	for _, mb := range cfg.ParquetVariants.RowGroupMB {
		for _, codec := range cfg.ParquetVariants.Compression {
			perGroup := rowsPerGroup(mb, rows)
			for _, sorted := range []bool{false, true} {
				name := variantName(mb, codec, sorted)
				path := filepath.Join(layout.DataDir(), name)
				if _, err := os.Stat(path); err != nil {
					query := "SELECT * FROM lineitem"
					if sorted {
						query += " ORDER BY l_shipdate"
					}
					if err := copyParquet(ctx, session, query, path, codec, perGroup); err != nil {
						return nil, err
					}
					logSize(path)
				}
				units, err := zonemap.Load(path)
				if err != nil {
					return nil, err
				}
				variants = append(variants, manifest.Variant{
					Path:             name,
					FullPath:         "data/" + name,
					RowsPerGroup:     perGroup,
					RowGroupsTotal:   len(units),
					Compression:      codec,
					RowGroupMBTarget: mb,
					Sorted:           sorted,
				})
			}
		}
	}

	paths := make([]string, 0, len(variants))
	for _, v := range variants {
		paths = append(paths, v.Resolve(layout.WorkDir))
	}
	prints, err := manifest.Fingerprints(ctx, paths)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		variants[i].SHA256First2MB = prints[variants[i].Resolve(layout.WorkDir)]
	}
	return variants, nil
}

type fileProvenance struct {
	SizeBytes      int64  `json:"size_bytes"`
	SHA256First2MB string `json:"sha256_first2mb"`
}

type provenance struct {
	DuckDBVersion string                    `json:"duckdb_version"`
	GoVersion     string                    `json:"go_version"`
	OS            string                    `json:"os"`
	Arch          string                    `json:"arch"`
	Hostname      string                    `json:"hostname"`
	LogicalCores  int                       `json:"logical_cores"`
	Files         map[string]fileProvenance `json:"files"`
}

// writeProvenance records what produced the dataset: engine and
// toolchain versions, the host, and the row-format files' sizes and
// fingerprints.
func writeProvenance(ctx context.Context, session *engine.Session, layout config.Layout) error {
	version, err := session.Version(ctx)
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()

	prov := provenance{
		DuckDBVersion: version,
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		Hostname:      hostname,
		LogicalCores:  runtime.NumCPU(),
		Files:         make(map[string]fileProvenance),
	}
	for _, path := range []string{layout.CSVPath(), layout.NDJSONPath()} {
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		sum, err := manifest.Fingerprint(path)
		if err != nil {
			return err
		}
		prov.Files[filepath.Base(path)] = fileProvenance{SizeBytes: st.Size(), SHA256First2MB: sum}
	}

	raw, err := json.MarshalIndent(prov, "", "  ")
	if err != nil {
		return fmt.Errorf("encode provenance: %w", err)
	}
	if err := os.WriteFile(layout.ProvenancePath(), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", layout.ProvenancePath(), err)
	}
	return nil
}
