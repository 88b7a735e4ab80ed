// Package store defines the persistence contract for people. The interface
// abstracts the storage mechanism from the repository and HTTP layers so
// the in-memory, SQLite, and Postgres backends are interchangeable.
package store
