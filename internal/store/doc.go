// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Implementations live in platform/postgres
// (pgx) and platform/gormstore (GORM, used with SQLite for local runs).
package store
