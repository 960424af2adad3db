// Package database provides SQLite storage for the trade-in core.
//
// The catalog of reference devices and the alias table both live in a
// single SQLite file. This package owns the connection lifecycle and the
// embedded schema migrations; repositories in internal/catalog and
// internal/alias run their queries against the *sql.DB exposed by DB.
//
// # Connection settings
//
//   - One writer connection (SQLite single-writer model)
//   - WAL journal for concurrent readers while an alias upsert is running
//   - Busy timeout so that concurrent upserts wait instead of failing
//   - Foreign keys enabled
//
// # Migrations
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. The migrations package at the module root
// embeds them and registers the filesystem via MigrationsFS.
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/tradein.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
