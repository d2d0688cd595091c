// Package repository provides data access for the catalog collections. Each
// collection stores one JSON document per row, keyed by the entity's natural
// identifier.
package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a document with the requested key does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a collection's unique key.
var ErrConflict = errors.New("unique key conflict")

// constraintViolated reports whether err is a sqlite unique/primary key violation.
func constraintViolated(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
