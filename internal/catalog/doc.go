// Package catalog provides the reference library of canonical trade-in devices.
//
// The library is maintained by catalog management and is read-only to the
// resolver. This package owns its persistence (SQLiteRepository), startup
// seeding from a YAML file, and the process-wide snapshot Cache that the
// resolver reads on every call.
//
// # Architecture
//
//	┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐
//	│      Cache       │    │    Repository    │    │       Seed       │
//	│    (cache.go)    │───▶│  (repository.go) │◀───│     (seed.go)    │
//	│                  │    │                  │    │                  │
//	│ • TTL snapshot   │    │ • SQLite queries │    │ • YAML loader    │
//	│ • atomic swap    │    │ • upsert by id   │    │ • stable ids     │
//	└──────────────────┘    └──────────────────┘    └──────────────────┘
//
// # Usage
//
//	repo := catalog.NewSQLiteRepository(db.DB)
//	cache := catalog.NewCache(repo, cfg.GetCacheTTL())
//	cache.SetLogger(log)
//
//	devices, err := cache.Get(ctx)
//	if err != nil {
//	    return err
//	}
//	phones := catalog.FilterActive(devices, "phone")
//
// # Thread Safety
//
// Cache is safe for concurrent use. A snapshot is never mutated after it is
// published; callers must treat the slice returned by Get as read-only.
package catalog
