package model

import "time"

// Facility represents one bookable sport venue.  A facility tracks its
// availability in one of two modes: court mode, where each discrete slot
// (court, table, lane) is either free or occupied, and capacity mode,
// where only a headcount ceiling applies.  Capacity mode is in effect
// whenever MaxCapacity is greater than zero; the two modes are mutually
// exclusive by convention.
//
// The aggregate counters CourtsInUse and PlayersPresent are the single
// source of truth for occupancy.  Booking rows are derived state and must
// always stay consistent with them.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – unique human-readable name, also used for lookup.
//  CourtCount     – number of bookable slots (court mode).
//  MaxCapacity    – headcount ceiling; zero means court mode.
//  CourtsInUse    – count of currently occupied courts.
//  PlayersPresent – current occupancy headcount across both modes.
//  Courts         – per-slot occupancy rows, ordered by Position.
//  Equipment      – equipment pool owned by this facility.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Facility struct {
	ID             uint64          // facilities.id
	Name           string          // facilities.name
	CourtCount     uint32          // facilities.court_count
	MaxCapacity    uint32          // facilities.max_capacity (0 = court mode)
	CourtsInUse    uint32          // facilities.courts_in_use
	PlayersPresent uint32          // facilities.players_present
	Courts         []Court         // child rows from courts, position ascending
	Equipment      []EquipmentItem // child rows from equipment
	CreatedAt      time.Time       // facilities.created_at
	UpdatedAt      time.Time       // facilities.updated_at
}

// CapacityMode reports whether availability is tracked by headcount
// instead of per-court occupancy.
func (f *Facility) CapacityMode() bool { return f.MaxCapacity > 0 }

// CourtAt returns the court with the given 1-based position, or nil when
// the position is out of range.  Courts are kept sorted by position so
// the lookup is an index access.
func (f *Facility) CourtAt(position uint32) *Court {
	if position == 0 || int(position) > len(f.Courts) {
		return nil
	}
	return &f.Courts[position-1]
}

// EquipmentByName returns the equipment pool entry with the given name,
// or nil when the facility does not track that item.
func (f *Facility) EquipmentByName(name string) *EquipmentItem {
	for i := range f.Equipment {
		if f.Equipment[i].Name == name {
			return &f.Equipment[i]
		}
	}
	return nil
}

// Court is one bookable slot inside a court-mode facility.  Position is
// 1-based and doubles as the display order; the original system encoded
// this as an ordered "label:flag" token array, which is normalized here
// into one row per slot.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – owning facility.
//  Position   – 1-based slot index within the facility.
//  Label      – display label such as "Court 1" or "Table 3".
//  Occupied   – whether an active booking currently holds this slot.
type Court struct {
	ID         uint64 // courts.id
	FacilityID uint64 // courts.facility_id
	Position   uint32 // courts.position
	Label      string // courts.label
	Occupied   bool   // courts.occupied
}

// EquipmentItem is one entry of a facility's equipment pool.  The
// invariant 0 <= InUseQty <= TotalQty is enforced by the reservation
// service on every issuance and floored on every release.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – owning facility.
//  Name       – equipment name, unique per facility.
//  TotalQty   – total owned quantity.
//  InUseQty   – quantity currently issued to active bookings.
type EquipmentItem struct {
	ID         uint64 // equipment.id
	FacilityID uint64 // equipment.facility_id
	Name       string // equipment.name
	TotalQty   uint32 // equipment.total_qty
	InUseQty   uint32 // equipment.in_use_qty
}
