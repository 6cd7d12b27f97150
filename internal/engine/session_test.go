package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExecuteTimesAndProfiles(t *testing.T) {
	s := openTestSession(t)
	profile := filepath.Join(t.TempDir(), "run0.json")

	elapsed, err := s.Execute(context.Background(), "SELECT SUM(i) FROM range(1000) t(i)", profile)
	require.NoError(t, err)
	require.Greater(t, elapsed.Nanoseconds(), int64(0))
	require.FileExists(t, profile)
}

func TestExecuteReportsQueryError(t *testing.T) {
	s := openTestSession(t)
	profile := filepath.Join(t.TempDir(), "run0.json")

	_, err := s.Execute(context.Background(), "SELECT * FROM no_such_table", profile)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	require.Contains(t, qerr.SQL, "no_such_table")
}

func TestExecAndQueryRow(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx, "CREATE TABLE t AS SELECT range AS x FROM range(10)"))
	var n int
	require.NoError(t, s.QueryRow(ctx, "SELECT COUNT(*) FROM t").Scan(&n))
	require.Equal(t, 10, n)

	err := s.Exec(ctx, "CREATE TABLE t (broken")
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
}

func TestQuantileDate(t *testing.T) {
	s := openTestSession(t)
	src := "(SELECT * FROM (VALUES (DATE '1995-01-01'), (DATE '1995-01-02'), (DATE '1995-01-03')) t(l_shipdate))"

	cutoff, err := s.QuantileDate(context.Background(), src, "l_shipdate", 0.5)
	require.NoError(t, err)
	require.Equal(t, "1995-01-02", cutoff)
}

func TestQuantileDateEmptySource(t *testing.T) {
	s := openTestSession(t)
	src := "(SELECT DATE '1995-01-01' AS l_shipdate WHERE 1 = 0)"

	_, err := s.QuantileDate(context.Background(), src, "l_shipdate", 0.5)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
}

func TestVersion(t *testing.T) {
	s := openTestSession(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, v)
}
