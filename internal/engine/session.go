package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ankitjoshi14/FormatBench/internal/utils"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// QueryError reports a statement the engine rejected or failed to run.
// A failed trial is data, not noise: callers record it and continue, no
// retries.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("engine: query failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Session is one DuckDB session. All statements go through a single
// pinned connection, so session-scoped settings such as profiling
// output apply to every later statement. A benchmark run owns exactly
// one Session and drives it sequentially.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
}

// Open connects to a database file, creating it if missing.
func Open(ctx context.Context, path string) (*Session, error) {
	return open(ctx, path+"?access_mode=READ_WRITE")
}

// OpenMemory starts an in-memory session. This is the normal mode for
// benchmark runs: every queried file is external, nothing persists.
func OpenMemory(ctx context.Context) (*Session, error) {
	return open(ctx, "")
}

func open(ctx context.Context, dsn string) (*Session, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("engine: open database: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: pin connection: %w", err)
	}
	return &Session{db: db, conn: conn}, nil
}

// Close releases the pinned connection and the database.
func (s *Session) Close() error {
	errs := utils.MultiError{}
	errs.Add(s.conn.Close())
	errs.Add(s.db.Close())
	return errs.ErrorOrNil()
}

// Version reports the engine build, for run provenance.
func (s *Session) Version(ctx context.Context) (string, error) {
	var v string
	if err := s.conn.QueryRowContext(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", fmt.Errorf("engine: version: %w", err)
	}
	return v, nil
}

// Exec runs an untimed statement: setup DDL, extension loads, COPY.
func (s *Session) Exec(ctx context.Context, query string) error {
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		return &QueryError{SQL: query, Err: err}
	}
	return nil
}

// QueryRow runs a single-row query on the session connection.
func (s *Session) QueryRow(ctx context.Context, query string) *sql.Row {
	return s.conn.QueryRowContext(ctx, query)
}

// QuantileDate computes the value at fraction f of a date column over
// src, rendered as YYYY-MM-DD. The engine requires constant percentile
// arguments, so f is interpolated into the statement.
func (s *Session) QuantileDate(ctx context.Context, src, column string, f float64) (string, error) {
	query := fmt.Sprintf("SELECT strftime(quantile_cont(%s, %v), '%%Y-%%m-%%d') FROM %s", column, f, src)
	var cutoff sql.NullString
	if err := s.conn.QueryRowContext(ctx, query).Scan(&cutoff); err != nil {
		return "", &QueryError{SQL: query, Err: err}
	}
	if !cutoff.Valid {
		return "", &QueryError{SQL: query, Err: errors.New("quantile over empty source")}
	}
	return cutoff.String, nil
}

// Execute runs one timed trial. Profiling output is redirected to
// profilePath first, then the clock runs around submission plus a full
// drain of the result set, mirroring what a client consuming the whole
// answer would wait for.
func (s *Session) Execute(ctx context.Context, query, profilePath string) (time.Duration, error) {
	pragmas := []string{
		"PRAGMA enable_profiling='json';",
		"PRAGMA profiling_mode='detailed';",
		fmt.Sprintf("PRAGMA profiling_output='%s';", profilePath),
	}
	for _, pragma := range pragmas {
		if _, err := s.conn.ExecContext(ctx, pragma); err != nil {
			return 0, &QueryError{SQL: pragma, Err: err}
		}
	}

	now := time.Now()
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return 0, &QueryError{SQL: query, Err: err}
	}
	if err := drain(rows); err != nil {
		return 0, &QueryError{SQL: query, Err: err}
	}
	return time.Since(now), nil
}

func drain(rows *sql.Rows) error {
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return rows.Close()
}
