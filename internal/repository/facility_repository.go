package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/campussports/facility-booking/internal/model"
)

// FacilityRepo provides CRUD access to facilities and their child court
// and equipment rows.  Reads load the full aggregate so callers see the
// court grid and equipment pool exactly as displayed.  Mutations that
// rebuild child rows run in one transaction and refuse to touch a
// facility that still has active bookings, returning ErrConflict.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo returns a new FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

// DB exposes the underlying pool.
func (r *FacilityRepo) DB() *sql.DB { return r.db }

const facilityCols = `id, name, court_count, max_capacity, courts_in_use, players_present, created_at, updated_at`

// Create inserts a facility together with its court grid and equipment
// pool and populates the generated IDs.  Court rows are created from
// the provided labels; when the caller supplies fewer labels than
// CourtCount the remainder default to "Court N".
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
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

	res, err := tx.ExecContext(ctx,
		`INSERT INTO facilities (name, court_count, max_capacity, courts_in_use, players_present)
		 VALUES (?,?,?,0,0)`,
		f.Name, f.CourtCount, f.MaxCapacity)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)

	if err := insertCourts(ctx, tx, f); err != nil {
		return err
	}
	if err := insertEquipment(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites a facility's definition: name, mode, court grid and
// equipment totals.  It refuses when the facility has active bookings,
// since rebuilding the grid under live occupancy would corrupt the
// counters.  Aggregate counters are reset to zero along with the grid.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
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

	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE facility_id = ? AND status = ?`,
		f.ID, model.BookingActive).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE facilities SET name = ?, court_count = ?, max_capacity = ?,
		        courts_in_use = 0, players_present = 0
		 WHERE id = ?`,
		f.Name, f.CourtCount, f.MaxCapacity, f.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows for no-op updates too, so
		// confirm the row exists before declaring not-found.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities WHERE id = ?`, f.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM courts WHERE facility_id = ?`, f.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipment WHERE facility_id = ?`, f.ID); err != nil {
		return err
	}
	if err := insertCourts(ctx, tx, f); err != nil {
		return err
	}
	if err := insertEquipment(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a facility and its child rows.  Facilities with active
// bookings cannot be deleted (ErrConflict); expired booking history
// survives because bookings reference the facility by denormalized name
// as well as id.
func (r *FacilityRepo) Delete(ctx context.Context, id uint64) error {
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

	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE facility_id = ? AND status = ?`,
		id, model.BookingActive).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courts WHERE facility_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipment WHERE facility_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns one facility aggregate, or sql.ErrNoRows.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*model.Facility, error) {
	return r.getOne(ctx, `SELECT `+facilityCols+` FROM facilities WHERE id = ?`, id)
}

// GetByName returns one facility aggregate by its unique name, or
// sql.ErrNoRows.
func (r *FacilityRepo) GetByName(ctx context.Context, name string) (*model.Facility, error) {
	return r.getOne(ctx, `SELECT `+facilityCols+` FROM facilities WHERE name = ?`, name)
}

func (r *FacilityRepo) getOne(ctx context.Context, query string, arg interface{}) (*model.Facility, error) {
	var f model.Facility
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&f.ID, &f.Name, &f.CourtCount, &f.MaxCapacity, &f.CourtsInUse, &f.PlayersPresent,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := loadFacilityChildren(ctx, r.db, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns every facility with its children, ordered by name, the
// way the booking page renders them.
func (r *FacilityRepo) List(ctx context.Context) ([]model.Facility, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+facilityCols+` FROM facilities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	facilities := make([]model.Facility, 0)
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(
			&f.ID, &f.Name, &f.CourtCount, &f.MaxCapacity, &f.CourtsInUse, &f.PlayersPresent,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range facilities {
		if err := loadFacilityChildren(ctx, r.db, &facilities[i]); err != nil {
			return nil, err
		}
	}
	return facilities, nil
}

// insertCourts creates f.CourtCount court rows inside tx, reusing the
// caller's labels where provided and defaulting the rest.
func insertCourts(ctx context.Context, tx *sql.Tx, f *model.Facility) error {
	if f.CourtCount == 0 {
		f.Courts = nil
		return nil
	}
	courts := make([]model.Court, f.CourtCount)
	for i := range courts {
		label := defaultCourtLabel(i + 1)
		if i < len(f.Courts) && strings.TrimSpace(f.Courts[i].Label) != "" {
			label = strings.TrimSpace(f.Courts[i].Label)
		}
		courts[i] = model.Court{FacilityID: f.ID, Position: uint32(i + 1), Label: label}
	}
	query := `INSERT INTO courts (facility_id, position, label, occupied) VALUES `
	args := make([]interface{}, 0, len(courts)*4)
	for i, c := range courts {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, FALSE)"
		args = append(args, c.FacilityID, c.Position, c.Label)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	f.Courts = courts
	return nil
}

// insertEquipment creates the facility's equipment pool rows inside tx.
// In-use quantities always start at zero.
func insertEquipment(ctx context.Context, tx *sql.Tx, f *model.Facility) error {
	kept := make([]model.EquipmentItem, 0, len(f.Equipment))
	for _, e := range f.Equipment {
		name := strings.TrimSpace(e.Name)
		if name == "" || e.TotalQty == 0 {
			continue
		}
		kept = append(kept, model.EquipmentItem{FacilityID: f.ID, Name: name, TotalQty: e.TotalQty})
	}
	f.Equipment = kept
	if len(kept) == 0 {
		return nil
	}
	query := `INSERT INTO equipment (facility_id, name, total_qty, in_use_qty) VALUES `
	args := make([]interface{}, 0, len(kept)*3)
	for i, e := range kept {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 0)"
		args = append(args, e.FacilityID, e.Name, e.TotalQty)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// defaultCourtLabel names slot i (1-based) the way the seed data does.
func defaultCourtLabel(i int) string {
	return "Court " + strconv.Itoa(i)
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062), used to surface unique-name clashes.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
