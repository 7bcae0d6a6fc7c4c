package service

import (
	"context"
	"time"

	"github.com/campussports/facility-booking/internal/model"
)

// Store is the transactional persistence boundary used by the
// reservation service.  InTx runs fn inside one storage transaction: all
// writes made through the Tx commit together or not at all.  The SQL
// implementation lives in the repository package; tests substitute an
// in-memory store.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the reads and writes the reservation operations need inside
// a transaction.  The ForUpdate facility reads must lock the facility
// row for the remainder of the transaction, because the facility's
// counters are read and then written back: the row lock is the only
// mutual exclusion between concurrent reservations.
type Tx interface {
	// ActiveBookingForUser returns the user's ACTIVE booking, or nil
	// when the user holds none.
	ActiveBookingForUser(ctx context.Context, userID uint64) (*model.Booking, error)

	// FacilityByNameForUpdate loads a facility with its courts and
	// equipment and locks its row.  Returns ErrFacilityNotFound when no
	// facility has that name.
	FacilityByNameForUpdate(ctx context.Context, name string) (*model.Facility, error)

	// FacilityByIDForUpdate is the id-keyed variant used on the release
	// path, where the booking carries a facility foreign key.
	FacilityByIDForUpdate(ctx context.Context, id uint64) (*model.Facility, error)

	// SetCourtOccupied flips one court slot's occupancy flag.
	SetCourtOccupied(ctx context.Context, facilityID uint64, position uint32, occupied bool) error

	// AddFacilityCounters adjusts courts_in_use and players_present by
	// signed deltas, flooring both at zero.
	AddFacilityCounters(ctx context.Context, facilityID uint64, courtsDelta, playersDelta int32) error

	// AddEquipmentInUse adjusts one equipment item's in-use quantity by
	// a signed delta, flooring at zero.  Unknown names match nothing and
	// are not an error; the service validates names before issuing.
	AddEquipmentInUse(ctx context.Context, facilityID uint64, name string, delta int32) error

	// CreateBooking inserts the booking and its equipment lines and
	// populates the generated ID.
	CreateBooking(ctx context.Context, b *model.Booking) error

	// BookingByID loads one booking with its equipment lines.  Returns
	// ErrBookingNotFound when it does not exist.
	BookingByID(ctx context.Context, id uint64) (*model.Booking, error)

	// SetBookingStatus updates a booking's status column.
	SetBookingStatus(ctx context.Context, id uint64, status string) error

	// SetBookingEnd updates a booking's end timestamp.
	SetBookingEnd(ctx context.Context, id uint64, end time.Time) error

	// OverdueActiveIDs returns the ids of ACTIVE bookings whose end time
	// is at or before now.
	OverdueActiveIDs(ctx context.Context, now time.Time) ([]uint64, error)
}
