package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campussports/facility-booking/internal/model"
)

// BookingRepo provides the query side of the reservation ledger plus the
// admin hard remove.  All mutations of booking lifecycle state go
// through the reservation service's transactional store; nothing here
// changes facility counters.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying pool.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `id, ref, user_id, facility_id, facility_name, court_position, court_label,
	player_count, starts_at, ends_at, status, created_at, updated_at`

// BookingFilter narrows List results.  Zero values mean "no filter".
// Date restricts to bookings whose window starts on that calendar day
// (UTC); TimeOverlap restricts to bookings whose window contains the
// given instant (starts_at <= t < ends_at), which is how the booking
// page answers "what is occupied right now".
type BookingFilter struct {
	UserID      uint64
	Status      string
	Date        string // YYYY-MM-DD
	TimeOverlap *time.Time
}

// whereClause renders the filter as a WHERE fragment and its arguments.
// An empty filter yields an empty string.
func (f BookingFilter) whereClause() (string, []interface{}) {
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, strings.ToUpper(f.Status))
	}
	if f.Date != "" {
		conds = append(conds, "DATE(starts_at) = ?")
		args = append(args, f.Date)
	}
	if f.TimeOverlap != nil {
		t := f.TimeOverlap.UTC()
		conds = append(conds, "starts_at <= ? AND ends_at > ?")
		args = append(args, t, t)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns bookings matching the filter, newest first, with their
// equipment lines populated.  The returned total equals len(documents);
// the pair mirrors the {documents, total} response shape.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, int, error) {
	where, args := f.whereClause()
	q := `SELECT ` + bookingCols + ` FROM bookings` + where + ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		index[b.ID] = len(bookings)
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(bookings) == 0 {
		return bookings, 0, nil
	}

	// Populate equipment lines for all bookings in a single query.
	ids := make([]interface{}, 0, len(bookings))
	placeholders := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		placeholders = append(placeholders, "?")
	}
	lineQ := `SELECT booking_id, name, quantity FROM booking_equipment
	          WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, name`
	lrows, err := r.db.QueryContext(ctx, lineQ, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var bid uint64
		var line model.EquipmentLine
		if err := lrows.Scan(&bid, &line.Name, &line.Quantity); err != nil {
			return nil, 0, err
		}
		idx, ok := index[bid]
		if !ok {
			continue
		}
		bookings[idx].Equipment = append(bookings[idx].Equipment, line)
	}
	if err := lrows.Err(); err != nil {
		return nil, 0, err
	}
	return bookings, len(bookings), nil
}

// GetByID returns one booking with its equipment lines, or sql.ErrNoRows.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := loadEquipmentLinesTx(ctx, r.db, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FindActiveByUser returns the user's ACTIVE booking, or nil when the
// user holds none.  Used by the dashboard countdown and the
// one-active-booking check on the read path.
func (r *BookingRepo) FindActiveByUser(ctx context.Context, userID uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE user_id = ? AND status = ? LIMIT 1`,
		userID, model.BookingActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := loadEquipmentLinesTx(ctx, r.db, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteByID hard-removes a booking row and its equipment lines.  The
// caller must expire an ACTIVE booking first so the facility counters
// are released; this method refuses ACTIVE rows with ErrConflict as a
// backstop.
func (r *BookingRepo) DeleteByID(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return err
	}
	if status == model.BookingActive {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_equipment WHERE booking_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
