// Package gormstore implements the store interfaces with gorm on sqlite.
// It backs local development and single-node deployments where running
// PostgreSQL is not worth it; the schema mirrors the goose migrations.
package gormstore
