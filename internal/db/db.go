package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"surfsup-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Open opens the climate dataset read-only and verifies it can be reached.
// The returned pool is safe for concurrent use by request handlers.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := registeredDriver(cfg.Driver)
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(NewLoggingConnector(drv, dsn, logger))
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// registeredDriver returns the driver instance registered under name without
// opening a connection.
func registeredDriver(name string) (driver.Driver, error) {
	probe, err := sql.Open(name, "")
	if err != nil {
		return nil, fmt.Errorf("db driver %q: %w", name, err)
	}
	defer func() { _ = probe.Close() }()
	return probe.Driver(), nil
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		// The dataset is owned elsewhere; never let the driver create an empty file.
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("dataset %s: %w", path, err)
		}
		path = "file:" + path
	}

	var params []string
	switch cfg.Driver {
	case "sqlite3":
		params = []string{"mode=ro", "_busy_timeout=5000", "_query_only=1"}
	case "sqlite":
		params = []string{"mode=ro", "_pragma=busy_timeout(5000)", "_pragma=query_only(1)"}
	default:
		return "", fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&"), nil
}
