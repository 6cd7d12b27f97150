package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ankitjoshi14/FormatBench/internal/api"
	"github.com/ankitjoshi14/FormatBench/internal/bench"
	"github.com/ankitjoshi14/FormatBench/internal/calibrate"
	"github.com/ankitjoshi14/FormatBench/internal/config"
	"github.com/ankitjoshi14/FormatBench/internal/engine"
	"github.com/ankitjoshi14/FormatBench/internal/manifest"
	"github.com/ankitjoshi14/FormatBench/internal/metrics"
	"github.com/ankitjoshi14/FormatBench/internal/results"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Run configuration file")
	workDir := flag.String("workdir", ".", "Directory holding data/, results/ and profiling/")
	listen := flag.String("listen", "", "Status server listen address, e.g. :8080 (empty disables it)")
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

	metrics.Init()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	layout := config.Layout{WorkDir: *workDir}

	var variants []manifest.Variant
	if cfg.HasParquet() {
		variants, err = manifest.Read(layout.ManifestPath())
		if err != nil {
			log.Fatalf("failed to read variant manifest: %v", err)
		}
		log.Printf("main: %d parquet variants from %s", len(variants), layout.ManifestPath())
	}

	session, err := engine.OpenMemory(ctx)
	if err != nil {
		log.Fatalf("failed to open engine session: %v", err)
	}
	defer session.Close()

	version, err := session.Version(ctx)
	if err != nil {
		log.Fatalf("failed to query engine version: %v", err)
	}
	log.Printf("main: engine %s", version)

	src, err := calibrationSource(layout, variants)
	if err != nil {
		log.Fatalf("failed to pick calibration source: %v", err)
	}
	cutoffs, err := calibrate.Calibrate(ctx, session, src, bench.ShipDateColumn, cfg.Selectivities)
	if err != nil {
		log.Fatalf("failed to calibrate cutoffs: %v", err)
	}

	runner := bench.New(session, cfg, layout, variants, cutoffs)

	summary, err := runBenchmark(ctx, runner, *listen)
	if err != nil {
		log.Fatalf("benchmark run aborted: %v", err)
	}

	if err := results.WriteTable(layout.MetricsPath(), summary.Records); err != nil {
		log.Fatalf("failed to write metrics table: %v", err)
	}
	log.Printf("main: saved %d records to %s, profiles under %s", len(summary.Records), layout.MetricsPath(), layout.ProfilingDir())

	for _, s := range summary.Skipped {
		log.Printf("main: skipped variant %s: %s", s.Variant, s.Err)
	}
	for _, f := range summary.Failures {
		log.Printf("main: failed cell %s run %d: %s", f.Cell, f.Rep, f.Err)
	}
}

// calibrationSource picks the file cutoffs are computed from: a sorted
// parquet variant when one exists, any variant otherwise, the CSV copy
// as a last resort.
func calibrationSource(layout config.Layout, variants []manifest.Variant) (string, error) {
	if ref, ok := manifest.Reference(variants); ok {
		return bench.SourceExpr("parquet", ref.Resolve(layout.WorkDir))
	}
	return bench.SourceExpr("csv", layout.CSVPath())
}

// runBenchmark executes the matrix, with the status server running
// alongside it when a listen address was given. The server never
// outlives the run.
func runBenchmark(ctx context.Context, runner *bench.Runner, listen string) (*bench.Summary, error) {
	if listen == "" {
		return runner.Run(ctx)
	}

	server := api.New(runner, listen)
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var summary *bench.Summary
	var eg errgroup.Group
	eg.Go(func() error {
		defer stop()
		var err error
		summary, err = runner.Run(runCtx)
		return err
	})
	eg.Go(func() error {
		// a status server that cannot bind is not worth aborting the run
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("main: status server: %v", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: status server shutdown: %v", err)
		}
		return nil
	})
	return summary, eg.Wait()
}
