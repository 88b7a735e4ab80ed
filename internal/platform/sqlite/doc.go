// Package sqlite stores people in a single SQLite file through the pure-Go
// modernc.org/sqlite driver. The schema is managed by embedded goose
// migrations.
package sqlite
