package storage

import (
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to dsn with driver and wraps the connection in bun.
//
// SQLite databases are limited to a single connection so in-memory DSNs
// keep one shared database.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, goerrors.New("unsupported database driver: "+driver, goerrors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER").
			WithMetadata(map[string]any{"driver": driver})
	}

	if strings.TrimSpace(dsn) == "" {
		return nil, goerrors.New("database dsn is required", goerrors.CategoryBadInput).
			WithTextCode("MISSING_DSN")
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to open database")
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	return db, nil
}
