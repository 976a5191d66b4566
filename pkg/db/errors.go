package db

import "strings"

// IsUniqueViolation reports whether the provided error is a SQLite unique
// constraint failure. When constraintName is provided (for example
// "catalog_entries.bar_code"), the helper also requires it in the message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
