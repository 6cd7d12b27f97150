package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ankitjoshi14/FormatBench/internal/bench"
)

// ProgressSource yields point-in-time snapshots of the running matrix.
type ProgressSource interface {
	Progress() bench.Progress
}

// Server exposes run progress and process metrics while a benchmark
// run executes.
type Server struct {
	source ProgressSource
	server *http.Server
}

// New creates a new status server.
func New(source ProgressSource, addr string) *Server {
	s := &Server{source: source}

	mux := http.NewServeMux()

	mux.HandleFunc("/progress", s.handleProgress)

	// pprof profiling endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.source.Progress()); err != nil {
		log.Printf("server: failed to write progress: %v", err)
	}
}

// Start runs the status server.
func (s *Server) Start() error {
	log.Printf("server: listening on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the status server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("server: shutting down status server...")
	return s.server.Shutdown(ctx)
}
