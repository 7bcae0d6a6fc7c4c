package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campussports/facility-booking/internal/model"
)

// memStore is an in-memory Store used to exercise the reservation logic
// without a database.  The single mutex plays the role of the facility
// row lock: transactions run one at a time.
type memStore struct {
	mu         sync.Mutex
	facilities map[uint64]*model.Facility
	byName     map[string]uint64
	bookings   map[uint64]*model.Booking
	nextID     uint64
}

func newMemStore() *memStore {
	return &memStore{
		facilities: map[uint64]*model.Facility{},
		byName:     map[string]uint64{},
		bookings:   map[uint64]*model.Booking{},
	}
}

func (m *memStore) addFacility(f model.Facility) *model.Facility {
	id := uint64(len(m.facilities) + 1)
	f.ID = id
	for i := range f.Courts {
		f.Courts[i].FacilityID = id
	}
	for i := range f.Equipment {
		f.Equipment[i].FacilityID = id
	}
	m.facilities[id] = &f
	m.byName[f.Name] = id
	return &f
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.Equipment = append([]model.EquipmentLine(nil), b.Equipment...)
	return &cp
}

func (m *memStore) ActiveBookingForUser(_ context.Context, userID uint64) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.UserID == userID && b.Status == model.BookingActive {
			return cloneBooking(b), nil
		}
	}
	return nil, nil
}

func (m *memStore) facilityByID(id uint64) (*model.Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, ErrFacilityNotFound
	}
	cp := *f
	cp.Courts = append([]model.Court(nil), f.Courts...)
	cp.Equipment = append([]model.EquipmentItem(nil), f.Equipment...)
	return &cp, nil
}

func (m *memStore) FacilityByNameForUpdate(_ context.Context, name string) (*model.Facility, error) {
	id, ok := m.byName[name]
	if !ok {
		return nil, ErrFacilityNotFound
	}
	return m.facilityByID(id)
}

func (m *memStore) FacilityByIDForUpdate(_ context.Context, id uint64) (*model.Facility, error) {
	return m.facilityByID(id)
}

func (m *memStore) SetCourtOccupied(_ context.Context, facilityID uint64, position uint32, occupied bool) error {
	f := m.facilities[facilityID]
	for i := range f.Courts {
		if f.Courts[i].Position == position {
			f.Courts[i].Occupied = occupied
			return nil
		}
	}
	return ErrCourtNotFound
}

func addFloored(cur uint32, delta int32) uint32 {
	v := int64(cur) + int64(delta)
	if v < 0 {
		v = 0
	}
	return uint32(v)
}

func (m *memStore) AddFacilityCounters(_ context.Context, facilityID uint64, courtsDelta, playersDelta int32) error {
	f := m.facilities[facilityID]
	f.CourtsInUse = addFloored(f.CourtsInUse, courtsDelta)
	f.PlayersPresent = addFloored(f.PlayersPresent, playersDelta)
	return nil
}

func (m *memStore) AddEquipmentInUse(_ context.Context, facilityID uint64, name string, delta int32) error {
	f := m.facilities[facilityID]
	for i := range f.Equipment {
		if f.Equipment[i].Name == name {
			f.Equipment[i].InUseQty = addFloored(f.Equipment[i].InUseQty, delta)
			return nil
		}
	}
	return ErrEquipmentUnknown
}

func (m *memStore) CreateBooking(_ context.Context, b *model.Booking) error {
	m.nextID++
	b.ID = m.nextID
	m.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (m *memStore) BookingByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (m *memStore) SetBookingStatus(_ context.Context, id uint64, status string) error {
	m.bookings[id].Status = status
	return nil
}

func (m *memStore) SetBookingEnd(_ context.Context, id uint64, end time.Time) error {
	m.bookings[id].EndsAt = end
	return nil
}

func (m *memStore) OverdueActiveIDs(_ context.Context, now time.Time) ([]uint64, error) {
	var ids []uint64
	for id, b := range m.bookings {
		if b.Status == model.BookingActive && !b.EndsAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// countingNotifier records how many times the relay fired.
type countingNotifier struct{ fired int32 }

func (n *countingNotifier) OccupancyChanged(context.Context) error {
	atomic.AddInt32(&n.fired, 1)
	return nil
}

func (n *countingNotifier) count() int32 { return atomic.LoadInt32(&n.fired) }

// ----- fixtures -----

func badmintonStore() *memStore {
	m := newMemStore()
	m.addFacility(model.Facility{
		Name:       "Badminton",
		CourtCount: 3,
		Courts: []model.Court{
			{Position: 1, Label: "Court 1"},
			{Position: 2, Label: "Court 2"},
			{Position: 3, Label: "Court 3"},
		},
		Equipment: []model.EquipmentItem{
			{Name: "Racket", TotalQty: 20},
			{Name: "Shuttle", TotalQty: 50},
		},
	})
	m.addFacility(model.Facility{Name: "Swimming", MaxCapacity: 20})
	return m
}

func courtInput(userID uint64, position uint32) ReserveInput {
	start := time.Now().UTC()
	return ReserveInput{
		UserID:        userID,
		FacilityName:  "Badminton",
		PlayerCount:   2,
		CourtPosition: position,
		StartsAt:      start,
		EndsAt:        start.Add(time.Hour),
	}
}

func TestReserveCourtMode(t *testing.T) {
	store := badmintonStore()
	notifier := &countingNotifier{}
	svc := NewReservationService(store, notifier)

	b, err := svc.Reserve(context.Background(), courtInput(1, 2))
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.NotEmpty(t, b.Ref)
	assert.Equal(t, model.BookingActive, b.Status)
	assert.Equal(t, "Court 2", b.CourtLabel)
	assert.Equal(t, uint32(2), b.PlayerCount)

	fac := store.facilities[1]
	assert.Equal(t, uint32(1), fac.CourtsInUse)
	assert.Equal(t, uint32(2), fac.PlayersPresent)
	assert.True(t, fac.Courts[1].Occupied)
	assert.False(t, fac.Courts[0].Occupied)
	assert.Equal(t, int32(1), notifier.count())
}

func TestReserveCapacityMode(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)
	start := time.Now().UTC()

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID:       7,
		FacilityName: "Swimming",
		PlayerCount:  5,
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Zero(t, b.CourtPosition)
	assert.Empty(t, b.CourtLabel)

	fac := store.facilities[2]
	assert.Equal(t, uint32(0), fac.CourtsInUse)
	assert.Equal(t, uint32(5), fac.PlayersPresent)

	// the courtless release path returns the headcount cleanly
	require.NoError(t, svc.Expire(context.Background(), b.ID))
	assert.Equal(t, uint32(0), fac.PlayersPresent)
	assert.Equal(t, uint32(0), fac.CourtsInUse)
}

func TestReserveCapacityModeRejectsCourtPosition(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)
	start := time.Now().UTC()

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID:        7,
		FacilityName:  "Swimming",
		PlayerCount:   2,
		CourtPosition: 3, // capacity-mode facilities have no courts
		StartsAt:      start,
		EndsAt:        start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrCourtNotFound)
	assert.Equal(t, uint32(0), store.facilities[2].PlayersPresent)
}

func TestReserveCapacityCeiling(t *testing.T) {
	store := badmintonStore()
	store.facilities[2].PlayersPresent = 16
	svc := NewReservationService(store, nil)
	start := time.Now().UTC()

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID:       7,
		FacilityName: "Swimming",
		PlayerCount:  5, // 16 + 5 > 20
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, uint32(16), store.facilities[2].PlayersPresent)
}

func TestReserveSecondActiveRejected(t *testing.T) {
	store := badmintonStore()
	notifier := &countingNotifier{}
	svc := NewReservationService(store, notifier)

	_, err := svc.Reserve(context.Background(), courtInput(1, 1))
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), courtInput(1, 2))
	assert.ErrorIs(t, err, ErrAlreadyBooked)
	// failed preconditions never fire the relay
	assert.Equal(t, int32(1), notifier.count())
}

func TestReserveCourtConflicts(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)

	_, err := svc.Reserve(context.Background(), courtInput(1, 1))
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), courtInput(2, 1))
	assert.ErrorIs(t, err, ErrCourtOccupied)

	_, err = svc.Reserve(context.Background(), courtInput(3, 9))
	assert.ErrorIs(t, err, ErrCourtNotFound)

	// court mode requires a position
	_, err = svc.Reserve(context.Background(), courtInput(3, 0))
	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestReserveUnknownFacility(t *testing.T) {
	svc := NewReservationService(badmintonStore(), nil)
	in := courtInput(1, 1)
	in.FacilityName = "Bowling"
	_, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestReserveWindowValidation(t *testing.T) {
	svc := NewReservationService(badmintonStore(), nil)
	start := time.Now().UTC()

	in := courtInput(1, 1)
	in.EndsAt = in.StartsAt // empty window
	_, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	in = courtInput(1, 1)
	in.EndsAt = start.Add(-time.Minute) // inverted
	_, err = svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	in = courtInput(1, 1)
	in.EndsAt = in.StartsAt.Add(241 * time.Minute)
	_, err = svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	// exactly four hours is allowed
	in = courtInput(1, 1)
	in.EndsAt = in.StartsAt.Add(240 * time.Minute)
	_, err = svc.Reserve(context.Background(), in)
	assert.NoError(t, err)
}

func TestReserveInvalidPlayerCount(t *testing.T) {
	svc := NewReservationService(badmintonStore(), nil)
	in := courtInput(1, 1)
	in.PlayerCount = 0
	_, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
}

func TestReserveEquipment(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)

	in := courtInput(1, 1)
	in.Equipment = map[string]uint32{"Racket": 2, "Shuttle": 3}
	b, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, b.Equipment, 2)
	// issued in sorted name order
	assert.Equal(t, "Racket", b.Equipment[0].Name)
	assert.Equal(t, "Shuttle", b.Equipment[1].Name)

	fac := store.facilities[1]
	assert.Equal(t, uint32(2), fac.Equipment[0].InUseQty)
	assert.Equal(t, uint32(3), fac.Equipment[1].InUseQty)
	// players counted once, not per equipment line
	assert.Equal(t, uint32(2), fac.PlayersPresent)
}

func TestReserveEquipmentRejections(t *testing.T) {
	store := badmintonStore()
	notifier := &countingNotifier{}
	svc := NewReservationService(store, notifier)

	in := courtInput(1, 1)
	in.Equipment = map[string]uint32{"Kayak": 1}
	_, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrEquipmentUnknown)

	in = courtInput(1, 1)
	in.Equipment = map[string]uint32{"Racket": 21}
	_, err = svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, ErrEquipmentExceeded)

	// nothing was issued or counted on the failed attempts
	fac := store.facilities[1]
	assert.Equal(t, uint32(0), fac.Equipment[0].InUseQty)
	assert.Equal(t, uint32(0), fac.PlayersPresent)
	assert.False(t, fac.Courts[0].Occupied)
	assert.Equal(t, int32(0), notifier.count())

	// the court the failed attempts asked for is still bookable
	in = courtInput(1, 1)
	b, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Court 1", b.CourtLabel)
	assert.True(t, fac.Courts[0].Occupied)
}

func TestExpireSymmetry(t *testing.T) {
	store := badmintonStore()
	notifier := &countingNotifier{}
	svc := NewReservationService(store, notifier)

	in := courtInput(1, 2)
	in.Equipment = map[string]uint32{"Shuttle": 4}
	b, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)

	require.NoError(t, svc.Expire(context.Background(), b.ID))

	fac := store.facilities[1]
	assert.Equal(t, uint32(0), fac.CourtsInUse)
	assert.Equal(t, uint32(0), fac.PlayersPresent)
	assert.False(t, fac.Courts[1].Occupied)
	assert.Equal(t, uint32(0), fac.Equipment[1].InUseQty)
	assert.Equal(t, model.BookingExpired, store.bookings[b.ID].Status)
	assert.Equal(t, int32(2), notifier.count())

	// double expire is a no-op conflict, counters stay at zero
	err = svc.Expire(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, uint32(0), fac.PlayersPresent)
	assert.Equal(t, int32(2), notifier.count())
}

func TestExpireUnknownBooking(t *testing.T) {
	svc := NewReservationService(badmintonStore(), nil)
	err := svc.Expire(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExtend(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)

	in := courtInput(1, 1) // one hour window
	b, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)

	// an absurd minute count is rejected before the duration arithmetic
	// can overflow and wrap the new end backwards
	_, err = svc.Extend(context.Background(), b.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrDurationExceeded)
	assert.Equal(t, in.EndsAt, store.bookings[b.ID].EndsAt)

	// up to exactly four hours total
	updated, err := svc.Extend(context.Background(), b.ID, 180)
	require.NoError(t, err)
	assert.Equal(t, b.StartsAt.Add(4*time.Hour), updated.EndsAt)

	// one more minute passes the ceiling and leaves the end unchanged
	_, err = svc.Extend(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, ErrDurationExceeded)
	assert.Equal(t, b.StartsAt.Add(4*time.Hour), store.bookings[b.ID].EndsAt)

	_, err = svc.Extend(context.Background(), b.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	require.NoError(t, svc.Expire(context.Background(), b.ID))
	_, err = svc.Extend(context.Background(), b.ID, 30)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestExpireOverdue(t *testing.T) {
	store := badmintonStore()
	notifier := &countingNotifier{}
	svc := NewReservationService(store, notifier)
	now := time.Now().UTC()

	mk := func(user uint64, position uint32, end time.Time) uint64 {
		in := courtInput(user, position)
		in.StartsAt = end.Add(-time.Hour)
		in.EndsAt = end
		b, err := svc.Reserve(context.Background(), in)
		require.NoError(t, err)
		return b.ID
	}
	overdue1 := mk(1, 1, now.Add(-time.Minute))
	overdue2 := mk(2, 2, now)
	future := mk(3, 3, now.Add(time.Hour))

	n, err := svc.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, model.BookingExpired, store.bookings[overdue1].Status)
	assert.Equal(t, model.BookingExpired, store.bookings[overdue2].Status)
	assert.Equal(t, model.BookingActive, store.bookings[future].Status)

	fac := store.facilities[1]
	assert.Equal(t, uint32(1), fac.CourtsInUse)
	assert.Equal(t, uint32(2), fac.PlayersPresent)

	// second sweep finds nothing
	n, err = svc.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentCourtContention(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)

	const players = 8
	errs := make(chan error, players)
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), courtInput(user, 1))
			errs <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(errs)

	won, lost := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case err == ErrCourtOccupied:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, players-1, lost)
	assert.Equal(t, uint32(1), store.facilities[1].CourtsInUse)
	assert.Equal(t, uint32(2), store.facilities[1].PlayersPresent)
}
