package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnsupportedDSN = errors.New("unsupported database dsn")

// Open connects to the database named by dsn and returns the matching
// RepositoryManager. Supported forms:
//
//	postgres://... or postgresql://...   PostgreSQL via pgx
//	sqlite://path, sqlite::memory:       SQLite via modernc
//	file:..., :memory:                   SQLite via modernc
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, NewPostgresRepositoryManager(), nil

	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite:")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("sqlite %q: %w", pragma, err)
			}
		}
		return db, NewSQLiteRepositoryManager(), nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redactDSN(dsn))
}

// redactDSN drops everything after the scheme so credentials never reach
// logs or errors.
func redactDSN(dsn string) string {
	if scheme, _, ok := strings.Cut(dsn, "://"); ok {
		return scheme + "://..."
	}
	return "..."
}
