// Package domain contains the core entity of the application, the Person,
// along with its partial-update form and validation errors. It is
// independent of any storage backend or delivery mechanism.
package domain
