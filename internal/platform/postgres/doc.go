// Package postgres provides PostgreSQL implementations of the store
// interfaces, built on pgx. Stores accept a DBTX so the same code runs
// against a pool or inside a transaction opened by Transactor.
package postgres
