package model

import "time"

// Booking status values.  A booking is created ACTIVE and only ever
// transitions to EXPIRED; there is no cancelled state, although admins
// may hard-delete a row.
const (
	BookingActive  = "ACTIVE"
	BookingExpired = "EXPIRED"
)

// Booking records one user's reservation of a facility for a time
// window, optionally with issued equipment.  A user holds at most one
// ACTIVE booking at any time.  Bookings reference their facility by
// immutable id; the facility name is kept denormalized for display so
// a renamed facility does not orphan history.
//
// Fields:
//  ID            – primary key identifier.
//  Ref           – opaque reference code handed to the client (QR payload).
//  UserID        – owner of the booking.
//  FacilityID    – foreign key to the facility.
//  FacilityName  – facility name at booking time (display only).
//  CourtPosition – 1-based court slot; zero for capacity-mode bookings.
//  CourtLabel    – label of the assigned court, empty for capacity mode.
//  PlayerCount   – number of players covered, always >= 1.
//  Equipment     – equipment issued under this booking.
//  StartsAt      – start of the reservation window.
//  EndsAt        – end of the window; may be extended up to four hours
//                  total from StartsAt.
//  Status        – ACTIVE or EXPIRED.
//  CreatedAt     – creation timestamp, immutable.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64          // bookings.id
	Ref           string          // bookings.ref
	UserID        uint64          // bookings.user_id
	FacilityID    uint64          // bookings.facility_id
	FacilityName  string          // bookings.facility_name (denormalized)
	CourtPosition uint32          // bookings.court_position (0 = capacity mode)
	CourtLabel    string          // bookings.court_label
	PlayerCount   uint32          // bookings.player_count
	Equipment     []EquipmentLine // child rows from booking_equipment
	StartsAt      time.Time       // bookings.starts_at
	EndsAt        time.Time       // bookings.ends_at
	Status        string          // bookings.status
	CreatedAt     time.Time       // bookings.created_at
	UpdatedAt     time.Time       // bookings.updated_at
}

// EquipmentLine is one issued-equipment entry of a booking.
//
// Fields:
//  Name     – equipment name, matching the facility pool entry.
//  Quantity – quantity issued for the booking's duration.
type EquipmentLine struct {
	Name     string // booking_equipment.name
	Quantity uint32 // booking_equipment.quantity
}
