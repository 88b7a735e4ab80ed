// Package memory provides an in-memory implementation of store.PersonStore
// used by default and in tests. Data does not survive a restart.
package memory
