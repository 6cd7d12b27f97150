package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FingerprintBytes is how much of a file the content fingerprint covers.
// Hashing only a prefix keeps re-verification cheap on multi-GB variants
// while still catching a swapped or regenerated file.
const FingerprintBytes = 2 * 1024 * 1024

// Variant describes one materialized parquet file. The JSON field names
// are the manifest's on-disk contract with the materializer.
type Variant struct {
	Path             string `json:"path"`
	FullPath         string `json:"full_path"`
	RowsPerGroup     int64  `json:"rows_per_group"`
	RowGroupsTotal   int    `json:"row_groups_total"`
	Compression      string `json:"compression"`
	RowGroupMBTarget int    `json:"row_group_mb_target"`
	SHA256First2MB   string `json:"sha256_first2mb"`
	Sorted           bool   `json:"sorted"`
}

// Resolve turns the stored path into an absolute one. Manifests carry
// workdir-relative paths so the data directory can move wholesale.
func (v Variant) Resolve(workdir string) string {
	if filepath.IsAbs(v.FullPath) {
		return v.FullPath
	}
	return filepath.Join(workdir, v.FullPath)
}

// Label is the variant's short identity for logs and diagnostic paths,
// e.g. "rg16_zstd_sorted".
func (v Variant) Label() string {
	label := fmt.Sprintf("rg%d_%s", v.RowGroupMBTarget, strings.ToLower(v.Compression))
	if v.Sorted {
		label += "_sorted"
	}
	return label
}

// Read loads and validates a variant manifest.
func Read(path string) ([]Variant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var variants []Variant
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	for i, v := range variants {
		if v.FullPath == "" {
			return nil, fmt.Errorf("manifest: %s: entry %d has no full_path", path, i)
		}
		if v.RowGroupMBTarget <= 0 {
			return nil, fmt.Errorf("manifest: %s: entry %s has invalid row_group_mb_target %d", path, v.FullPath, v.RowGroupMBTarget)
		}
		if v.Compression == "" {
			return nil, fmt.Errorf("manifest: %s: entry %s has no compression", path, v.FullPath)
		}
	}
	return variants, nil
}

// Write persists the manifest, creating parent directories as needed.
func Write(path string, variants []Variant) error {
	raw, err := json.MarshalIndent(variants, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("manifest: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Reference picks the variant used to calibrate selectivity cutoffs: the
// first sorted one if any, otherwise the first. Sorted files keep the
// quantile-to-layout mapping meaningful. ok is false for an empty
// manifest; callers then calibrate against a row-format file instead.
func Reference(variants []Variant) (Variant, bool) {
	for _, v := range variants {
		if v.Sorted {
			return v, true
		}
	}
	if len(variants) > 0 {
		return variants[0], true
	}
	return Variant{}, false
}

// Fingerprint hashes the first FingerprintBytes of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("manifest: fingerprint %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, FingerprintBytes)); err != nil {
		return "", fmt.Errorf("manifest: fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprints hashes several files concurrently and returns a map keyed
// by path. Any single failure fails the batch.
func Fingerprints(ctx context.Context, paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	var mu sync.Mutex

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			sum, err := Fingerprint(path)
			if err != nil {
				return err
			}
			mu.Lock()
			out[path] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
