// Package repository implements the data access layer. Each entity has a
// narrow repository over *sql.DB; no query builder is exposed upward.
//
// Sentinel errors let handlers map failures onto the HTTP taxonomy without
// inspecting driver errors themselves. Duplicate-key violations (MySQL
// error 1062) are the authoritative conflict signal: uniqueness is enforced
// by constraints or atomic conditional inserts, never by check-then-insert.
package repository

import (
	"database/sql"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with existing state: a
// duplicate vendor assignment, a second open membership row, a repeated
// role request. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// notFoundAs maps sql.ErrNoRows to ErrNotFound and passes everything else
// through unchanged.
func notFoundAs(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
