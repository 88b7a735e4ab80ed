// Package service contains the person repository that sits between the HTTP
// layer and the storage backends.
//
// The repository exposes the CRUD operations of a store.PersonStore plus a
// registry of named finders. Each finder binds a query parameter to one
// queryable field, so "findByLastName?name=Baggins" becomes an equality
// lookup on lastName. Every operation is logged with the request-scoped
// logger and recorded as an OpenTelemetry span.
//
// The service package depends on domain entities and the store interfaces,
// never on a specific storage backend.
package service
