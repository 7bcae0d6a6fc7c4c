package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/service"
)

// SQLStore adapts a MySQL connection pool to the reservation service's
// Store contract.  Every InTx call opens one transaction; the Tx handed
// to fn keeps all reads and writes on that transaction, so the
// SELECT ... FOR UPDATE facility reads hold their row lock until commit
// or rollback.  Read-committed-or-stronger isolation plus that row lock
// is the only mutual exclusion between concurrent reservations.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a SQLStore bound to the given database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// DB exposes the underlying pool for query-only repositories.
func (s *SQLStore) DB() *sql.DB { return s.db }

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back every write otherwise.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTx implements service.Tx over one open *sql.Tx.
type sqlTx struct {
	tx *sql.Tx
}

// ActiveBookingForUser returns the user's ACTIVE booking with its
// equipment lines, or nil when the user holds none.
func (t *sqlTx) ActiveBookingForUser(ctx context.Context, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, ref, user_id, facility_id, facility_name, court_position, court_label,
	                  player_count, starts_at, ends_at, status, created_at, updated_at
	           FROM bookings WHERE user_id = ? AND status = ? LIMIT 1`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, userID, model.BookingActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := loadEquipmentLinesTx(ctx, t.tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FacilityByNameForUpdate locks and loads one facility by name.
func (t *sqlTx) FacilityByNameForUpdate(ctx context.Context, name string) (*model.Facility, error) {
	const q = `SELECT id, name, court_count, max_capacity, courts_in_use, players_present,
	                  created_at, updated_at
	           FROM facilities WHERE name = ? FOR UPDATE`
	return t.lockFacility(ctx, q, name)
}

// FacilityByIDForUpdate locks and loads one facility by id.
func (t *sqlTx) FacilityByIDForUpdate(ctx context.Context, id uint64) (*model.Facility, error) {
	const q = `SELECT id, name, court_count, max_capacity, courts_in_use, players_present,
	                  created_at, updated_at
	           FROM facilities WHERE id = ? FOR UPDATE`
	return t.lockFacility(ctx, q, id)
}

func (t *sqlTx) lockFacility(ctx context.Context, query string, arg interface{}) (*model.Facility, error) {
	var f model.Facility
	err := t.tx.QueryRowContext(ctx, query, arg).Scan(
		&f.ID, &f.Name, &f.CourtCount, &f.MaxCapacity, &f.CourtsInUse, &f.PlayersPresent,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, service.ErrFacilityNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadFacilityChildren(ctx, t.tx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// SetCourtOccupied flips one court slot's occupancy flag.
func (t *sqlTx) SetCourtOccupied(ctx context.Context, facilityID uint64, position uint32, occupied bool) error {
	const q = `UPDATE courts SET occupied = ? WHERE facility_id = ? AND position = ?`
	_, err := t.tx.ExecContext(ctx, q, occupied, facilityID, position)
	return err
}

// AddFacilityCounters adjusts the aggregate counters with a floor of
// zero on both columns.
func (t *sqlTx) AddFacilityCounters(ctx context.Context, facilityID uint64, courtsDelta, playersDelta int32) error {
	const q = `UPDATE facilities
	           SET courts_in_use   = GREATEST(CAST(courts_in_use AS SIGNED) + ?, 0),
	               players_present = GREATEST(CAST(players_present AS SIGNED) + ?, 0)
	           WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, courtsDelta, playersDelta, facilityID)
	return err
}

// AddEquipmentInUse adjusts one pool entry's in-use quantity, flooring
// at zero.  An unknown name matches no row and is not an error.
func (t *sqlTx) AddEquipmentInUse(ctx context.Context, facilityID uint64, name string, delta int32) error {
	const q = `UPDATE equipment
	           SET in_use_qty = GREATEST(CAST(in_use_qty AS SIGNED) + ?, 0)
	           WHERE facility_id = ? AND name = ?`
	_, err := t.tx.ExecContext(ctx, q, delta, facilityID, name)
	return err
}

// CreateBooking inserts the booking row and its equipment lines and
// populates the generated ID.
func (t *sqlTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (ref, user_id, facility_id, facility_name, court_position, court_label,
	            player_count, starts_at, ends_at, status)
	           VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.Ref, b.UserID, b.FacilityID, b.FacilityName, b.CourtPosition, b.CourtLabel,
		b.PlayerCount, b.StartsAt, b.EndsAt, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if len(b.Equipment) == 0 {
		return nil
	}
	query := `INSERT INTO booking_equipment (booking_id, name, quantity) VALUES `
	args := make([]interface{}, 0, len(b.Equipment)*3)
	for i, line := range b.Equipment {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, b.ID, line.Name, line.Quantity)
	}
	_, err = t.tx.ExecContext(ctx, query, args...)
	return err
}

// BookingByID loads one booking with its equipment lines.
func (t *sqlTx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, ref, user_id, facility_id, facility_name, court_position, court_label,
	                  player_count, starts_at, ends_at, status, created_at, updated_at
	           FROM bookings WHERE id = ?`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, service.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadEquipmentLinesTx(ctx, t.tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetBookingStatus updates the status column only.
func (t *sqlTx) SetBookingStatus(ctx context.Context, id uint64, status string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// SetBookingEnd updates the end timestamp only.
func (t *sqlTx) SetBookingEnd(ctx context.Context, id uint64, end time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bookings SET ends_at = ? WHERE id = ?`, end.UTC(), id)
	return err
}

// OverdueActiveIDs returns ids of ACTIVE bookings whose window has
// already closed.
func (t *sqlTx) OverdueActiveIDs(ctx context.Context, now time.Time) ([]uint64, error) {
	const q = `SELECT id FROM bookings WHERE status = ? AND ends_at <= ? ORDER BY ends_at`
	rows, err := t.tx.QueryContext(ctx, q, model.BookingActive, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.Ref, &b.UserID, &b.FacilityID, &b.FacilityName, &b.CourtPosition, &b.CourtLabel,
		&b.PlayerCount, &b.StartsAt, &b.EndsAt, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// queryer covers *sql.DB and *sql.Tx for shared child-row loaders.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadFacilityChildren populates Courts (position ascending) and
// Equipment for an already-scanned facility.
func loadFacilityChildren(ctx context.Context, q queryer, f *model.Facility) error {
	const courtQ = `SELECT id, facility_id, position, label, occupied
	                FROM courts WHERE facility_id = ? ORDER BY position`
	rows, err := q.QueryContext(ctx, courtQ, f.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	f.Courts = f.Courts[:0]
	for rows.Next() {
		var c model.Court
		if err := rows.Scan(&c.ID, &c.FacilityID, &c.Position, &c.Label, &c.Occupied); err != nil {
			return err
		}
		f.Courts = append(f.Courts, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const eqQ = `SELECT id, facility_id, name, total_qty, in_use_qty
	             FROM equipment WHERE facility_id = ? ORDER BY id`
	erows, err := q.QueryContext(ctx, eqQ, f.ID)
	if err != nil {
		return err
	}
	defer erows.Close()
	f.Equipment = f.Equipment[:0]
	for erows.Next() {
		var e model.EquipmentItem
		if err := erows.Scan(&e.ID, &e.FacilityID, &e.Name, &e.TotalQty, &e.InUseQty); err != nil {
			return err
		}
		f.Equipment = append(f.Equipment, e)
	}
	return erows.Err()
}

// loadEquipmentLinesTx fills one booking's issued-equipment lines.
func loadEquipmentLinesTx(ctx context.Context, q queryer, b *model.Booking) error {
	const lineQ = `SELECT name, quantity FROM booking_equipment WHERE booking_id = ? ORDER BY name`
	rows, err := q.QueryContext(ctx, lineQ, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line model.EquipmentLine
		if err := rows.Scan(&line.Name, &line.Quantity); err != nil {
			return err
		}
		b.Equipment = append(b.Equipment, line)
	}
	return rows.Err()
}
