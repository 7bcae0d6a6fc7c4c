// Package service implements the reservation business logic: the
// transactional reserve/expire/extend operations over facilities and
// bookings, and the background sweeper that expires overdue bookings.
// The service is the sole writer of facility + booking composite state.
package service

import "errors"

// Sentinel errors returned by the reservation service.  Conflict errors
// (already booked, court occupied, capacity full, equipment exhausted,
// duration exceeded) are expected and user-recoverable; not-found errors
// indicate caller or data inconsistency.  Handlers translate these into
// HTTP statuses and surface the message verbatim; anything else is
// reported as a generic storage failure.

// ErrAlreadyBooked is returned when the user already holds an ACTIVE
// booking.  A user must return their previous booking first.
var ErrAlreadyBooked = errors.New("you already have an active booking")

// ErrFacilityNotFound is returned when the named facility does not exist.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrBookingNotFound is returned when the referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrCourtOccupied is returned when the selected court is already booked.
var ErrCourtOccupied = errors.New("court already booked")

// ErrCourtNotFound is returned when the court position is outside the
// facility's slot range, when a court-mode reservation omits it, or
// when a capacity-mode reservation names one.
var ErrCourtNotFound = errors.New("court not found")

// ErrCapacityExceeded is returned when a capacity-mode facility cannot
// take the requested player count.
var ErrCapacityExceeded = errors.New("facility is full")

// ErrEquipmentUnknown is returned when the facility does not track a
// requested equipment item.
var ErrEquipmentUnknown = errors.New("equipment not available at this facility")

// ErrEquipmentExceeded is returned when issuing the requested quantity
// would push an item's in-use count above its owned total.
var ErrEquipmentExceeded = errors.New("not enough equipment available")

// ErrNotActive is returned when expiring or extending a booking that is
// not in the ACTIVE state.  Expire is never applied twice.
var ErrNotActive = errors.New("booking is not active")

// ErrDurationExceeded is returned when an extension would push the total
// duration past the four hour ceiling measured from the original start.
var ErrDurationExceeded = errors.New("total booking duration cannot exceed 4 hours")

// ErrInvalidWindow is returned when the reservation window is empty,
// inverted, or longer than the four hour ceiling at creation time.
var ErrInvalidWindow = errors.New("invalid booking window")

// ErrInvalidPlayerCount is returned when a reservation asks for fewer
// than one player.
var ErrInvalidPlayerCount = errors.New("player count must be at least 1")
