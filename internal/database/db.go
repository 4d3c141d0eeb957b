package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// NewDB opens the SQLite performance cache with sane defaults and optional
// query logging.
func NewDB(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to a private in-memory database sees its own empty
	// schema, so pin those to a single connection.
	if isMemory(dsn) {
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.Exec(`
        PRAGMA journal_mode = WAL;
        PRAGMA synchronous = NORMAL;
        PRAGMA foreign_keys = ON;
        PRAGMA busy_timeout = 5000;
        PRAGMA cache_size = -64000;
    `); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Ping reports whether the database answers a trivial query.
func Ping(ctx context.Context, db *bun.DB) error {
	return db.PingContext(ctx)
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}
