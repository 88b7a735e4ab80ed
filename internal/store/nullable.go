package store

import "database/sql"

// NullString converts a nullable name into a SQL argument.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringFromNull converts a scanned column back into a nullable name.
func StringFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
