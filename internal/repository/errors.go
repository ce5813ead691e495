// Package repository implements the persistence gateway over MySQL.  Each
// entity gets a repo bound to a shared *sql.DB; multi-step mutations in the
// service layer are ordered so the irrecoverable side effect happens before
// the recoverable one, because the gateway never assumes cross-table
// transactions are available everywhere it is deployed.
//
// The sentinel values below let higher layers distinguish failure scenarios
// with errors.Is.  ErrNotFound wraps the absent-row case uniformly instead
// of leaking sql.ErrNoRows; ErrConflict signals duplicate keys or dependent
// records (e.g. deleting a zone that still has active passes).
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist or the
// supplied identifier is malformed.  Handlers translate this into 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or delete cannot proceed because
// of conflicting state: a duplicate zone name or discount code, or a delete
// blocked by dependent records.  Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")
