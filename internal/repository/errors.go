// Package repository implements all database access for the facility
// booking service against MySQL.  It defines error values shared across
// repositories so that handlers can distinguish failure scenarios: for
// example, ErrForbidden indicates the current user is not allowed to
// touch a resource owned by someone else, while ErrConflict signals that
// an operation cannot proceed because dependent records exist (such as
// deleting a facility that still has active bookings).  Domain-level
// reservation errors live in the service package; this package maps
// missing rows onto them where the service's Tx contract requires it.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a facility with
// active bookings. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrNameExists is returned when a facility insert or rename collides
// with an existing facility name.
var ErrNameExists = errors.New("facility name already exists")
