// Package postgres stores people in PostgreSQL through the pgx stdlib
// driver. It maps database errors onto the store package's sentinel errors
// and ships the schema as embedded goose migrations.
package postgres
