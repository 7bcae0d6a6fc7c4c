package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campussports/facility-booking/internal/model"
)

// maxBookingDuration caps the total window from the original start, for
// both the initial reservation and later extensions.
const maxBookingDuration = 4 * time.Hour

// ReservationService owns every mutation of facility + booking composite
// state.  Each public operation runs as one storage transaction: all
// facility and booking writes commit together or none do, so a failed
// precondition can never leave the counters inconsistent with the
// ledger.  The facility row lock taken by the ForUpdate reads serializes
// concurrent reservations against the same facility; the first
// transaction to commit wins and the loser gets a conflict error.
type ReservationService struct {
	store    Store
	notifier Notifier
}

// NewReservationService constructs a ReservationService.  A nil notifier
// degrades to a no-op relay.
func NewReservationService(store Store, notifier Notifier) *ReservationService {
	if store == nil {
		panic("nil store passed to NewReservationService")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ReservationService{store: store, notifier: notifier}
}

// ReserveInput carries everything needed to create a booking.
// CourtPosition is the 1-based slot index and must be zero for
// capacity-mode facilities.  Equipment maps item name to the quantity
// requested for the booking's duration.
type ReserveInput struct {
	UserID        uint64
	FacilityName  string
	PlayerCount   uint32
	CourtPosition uint32
	Equipment     map[string]uint32
	StartsAt      time.Time
	EndsAt        time.Time
}

// Reserve creates an ACTIVE booking and claims its resources in one
// transaction.  Preconditions are checked in order: no existing active
// booking for the user, facility exists, capacity or court availability,
// equipment availability.  No write is issued until every precondition
// has passed, so a rejected reservation touches nothing.  The facility's
// players_present counter is incremented exactly once per reservation
// regardless of mode or equipment presence.  On commit the occupancy
// relay is signalled.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, error) {
	if in.PlayerCount < 1 {
		return nil, ErrInvalidPlayerCount
	}
	if !in.EndsAt.After(in.StartsAt) || in.EndsAt.Sub(in.StartsAt) > maxBookingDuration {
		return nil, ErrInvalidWindow
	}

	var booking *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.ActiveBookingForUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyBooked
		}

		fac, err := tx.FacilityByNameForUpdate(ctx, in.FacilityName)
		if err != nil {
			return err
		}

		var court *model.Court
		if fac.CapacityMode() {
			if in.CourtPosition != 0 {
				return ErrCourtNotFound
			}
			if fac.PlayersPresent+in.PlayerCount > fac.MaxCapacity {
				return ErrCapacityExceeded
			}
		} else {
			court = fac.CourtAt(in.CourtPosition)
			if court == nil {
				return ErrCourtNotFound
			}
			if court.Occupied {
				return ErrCourtOccupied
			}
		}

		// Validate the whole equipment request before writing anything,
		// in a stable order so contended transactions touch rows in the
		// same sequence.
		names := make([]string, 0, len(in.Equipment))
		for name, qty := range in.Equipment {
			if qty == 0 {
				continue
			}
			item := fac.EquipmentByName(name)
			if item == nil {
				return ErrEquipmentUnknown
			}
			if item.InUseQty+qty > item.TotalQty {
				return ErrEquipmentExceeded
			}
			names = append(names, name)
		}
		sort.Strings(names)

		// Every precondition holds; only now does the transaction write.
		var courtsDelta int32
		var courtLabel string
		if court != nil {
			if err := tx.SetCourtOccupied(ctx, fac.ID, court.Position, true); err != nil {
				return err
			}
			courtsDelta = 1
			courtLabel = court.Label
		}
		lines := make([]model.EquipmentLine, 0, len(names))
		for _, name := range names {
			qty := in.Equipment[name]
			if err := tx.AddEquipmentInUse(ctx, fac.ID, name, int32(qty)); err != nil {
				return err
			}
			lines = append(lines, model.EquipmentLine{Name: name, Quantity: qty})
		}

		// Single explicit player-count step: exactly once per
		// reservation, for both modes.
		if err := tx.AddFacilityCounters(ctx, fac.ID, courtsDelta, int32(in.PlayerCount)); err != nil {
			return err
		}

		now := time.Now().UTC()
		b := &model.Booking{
			Ref:           uuid.NewString(),
			UserID:        in.UserID,
			FacilityID:    fac.ID,
			FacilityName:  fac.Name,
			CourtPosition: in.CourtPosition,
			CourtLabel:    courtLabel,
			PlayerCount:   in.PlayerCount,
			Equipment:     lines,
			StartsAt:      in.StartsAt.UTC(),
			EndsAt:        in.EndsAt.UTC(),
			Status:        model.BookingActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx)
	return booking, nil
}

// Expire transitions an ACTIVE booking to EXPIRED and symmetrically
// releases its resources: the court slot is freed, courts_in_use and
// players_present are decremented with a floor of zero, and every issued
// equipment quantity is returned to the pool.  Expiring a booking that
// is not ACTIVE returns ErrNotActive and touches no counters, so a
// double expire can never release resources twice.
func (s *ReservationService) Expire(ctx context.Context, bookingID uint64) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingActive {
			return ErrNotActive
		}
		// Defensive: facilities outlive bookings, but a missing row must
		// abort before any counter moves.
		if _, err := tx.FacilityByIDForUpdate(ctx, b.FacilityID); err != nil {
			return err
		}
		if err := tx.SetBookingStatus(ctx, b.ID, model.BookingExpired); err != nil {
			return err
		}
		var courtsDelta int32
		if b.CourtPosition > 0 {
			if err := tx.SetCourtOccupied(ctx, b.FacilityID, b.CourtPosition, false); err != nil {
				return err
			}
			courtsDelta = -1
		}
		if err := tx.AddFacilityCounters(ctx, b.FacilityID, courtsDelta, -int32(b.PlayerCount)); err != nil {
			return err
		}
		for _, line := range b.Equipment {
			if err := tx.AddEquipmentInUse(ctx, b.FacilityID, line.Name, -int32(line.Quantity)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// Extend pushes an ACTIVE booking's end time forward by extraMinutes.
// The total duration from the original start may reach the four hour
// ceiling exactly but not pass it; a rejected extension leaves the end
// time unchanged.  No facility counters move.
func (s *ReservationService) Extend(ctx context.Context, bookingID uint64, extraMinutes int) (*model.Booking, error) {
	if extraMinutes < 1 {
		return nil, ErrInvalidWindow
	}
	// Bounds-check before the duration arithmetic: a huge minute count
	// would overflow time.Duration and wrap the new end backwards.
	if extraMinutes > int(maxBookingDuration/time.Minute) {
		return nil, ErrDurationExceeded
	}
	var booking *model.Booking
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingActive {
			return ErrNotActive
		}
		newEnd := b.EndsAt.Add(time.Duration(extraMinutes) * time.Minute)
		if newEnd.Sub(b.StartsAt) > maxBookingDuration {
			return ErrDurationExceeded
		}
		if err := tx.SetBookingEnd(ctx, b.ID, newEnd); err != nil {
			return err
		}
		b.EndsAt = newEnd
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx)
	return booking, nil
}

// ExpireOverdue expires every ACTIVE booking whose end time is at or
// before now and returns how many were expired.  Each booking is expired
// in its own transaction so one bad row cannot wedge the sweep; a
// booking expired concurrently by its owner is skipped.
func (s *ReservationService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	var ids []uint64
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		ids, err = tx.OverdueActiveIDs(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		switch err := s.Expire(ctx, id); {
		case err == nil:
			expired++
		case errors.Is(err, ErrNotActive):
			// lost the race to the owner's own expire call
		default:
			log.Printf("reservation: sweep expire booking %d failed: %v", id, err)
		}
	}
	return expired, nil
}

// notify signals the occupancy relay after a committed mutation.  The
// relay is best effort: failures are logged and never surfaced to the
// caller.
func (s *ReservationService) notify(ctx context.Context) {
	if err := s.notifier.OccupancyChanged(ctx); err != nil {
		log.Printf("reservation: occupancy notify failed: %v", err)
	}
}
