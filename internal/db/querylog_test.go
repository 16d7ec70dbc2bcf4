package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfsup-server/internal/config"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu      sync.Mutex
	records []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.records = append(h.records, m)
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(_ string) slog.Handler { return h }

func (h *captureHandler) last(t *testing.T, msg string) map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i]["msg"].String() == msg {
			return h.records[i]
		}
	}
	t.Fatalf("no %q log record", msg)
	return nil
}

func TestNewLoggingConnector_NilLoggerUsesDefault(t *testing.T) {
	c := NewLoggingConnector(&sqlite3.SQLiteDriver{}, ":memory:", nil)
	lc, ok := c.(*loggingConnector)
	require.True(t, ok)
	assert.Same(t, slog.Default(), lc.logger)
}

func TestLoggingConnector_QueryLogged(t *testing.T) {
	h := &captureHandler{}
	path := newDatasetFile(t)

	conn := sql.OpenDB(NewLoggingConnector(&sqlite3.SQLiteDriver{}, "file:"+path+"?mode=ro", slog.New(h)))
	t.Cleanup(func() { _ = conn.Close() })

	var tobs float64
	err := conn.QueryRow(`SELECT tobs FROM measurement WHERE station = ? AND date >= ?`, "USC00519397", "2010-01-01").Scan(&tobs)
	require.NoError(t, err)
	assert.Equal(t, 65.0, tobs)

	rec := h.last(t, "sql")
	assert.Equal(t, "query", rec["op"].String())
	assert.Equal(t, `SELECT tobs FROM measurement WHERE station = ? AND date >= ?`, rec["sql"].String())
	args, ok := rec["args"].Any().([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"USC00519397", "2010-01-01"}, args)
	_, hasDuration := rec["duration_ms"]
	assert.True(t, hasDuration)
}

func TestLoggingConnector_FailedExecLogsError(t *testing.T) {
	h := &captureHandler{}
	path := newDatasetFile(t)

	conn := sql.OpenDB(NewLoggingConnector(&sqlite3.SQLiteDriver{}, "file:"+path+"?mode=ro", slog.New(h)))
	t.Cleanup(func() { _ = conn.Close() })

	_, err := conn.Exec(`DELETE FROM measurement WHERE prcp IS ?`, nil)
	require.Error(t, err)

	rec := h.last(t, "sql")
	assert.Equal(t, "exec", rec["op"].String())
	assert.Equal(t, []string{"NULL"}, rec["args"].Any())
	_, hasErr := rec["error"]
	assert.True(t, hasErr)
}

func TestLoggingConnector_PingSucceeds(t *testing.T) {
	conn := sql.OpenDB(NewLoggingConnector(&sqlite3.SQLiteDriver{}, ":memory:", slog.Default()))
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Ping())
}

func TestOpen_LogSQLUsesConnector(t *testing.T) {
	h := &captureHandler{}
	cfg := config.Config{Driver: "sqlite3", Path: newDatasetFile(t), LogSQL: true}

	conn, err := Open(context.Background(), cfg, slog.New(h))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM measurement`).Scan(&n))
	assert.Equal(t, `SELECT COUNT(*) FROM measurement`, h.last(t, "sql")["sql"].String())
}
