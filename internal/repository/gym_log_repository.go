package repository

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/campussports/facility-booking/internal/model"
)

// GymLogRepo persists gym attendance sessions.  The scan endpoint uses
// Toggle semantics: an open session (null exit_time) is closed by the
// next scan, otherwise a new session starts.
type GymLogRepo struct {
	db *sql.DB
}

// NewGymLogRepo returns a new GymLogRepo bound to the given database.
func NewGymLogRepo(db *sql.DB) *GymLogRepo { return &GymLogRepo{db: db} }

// FindOpenByUser returns the user's open session, or nil when they are
// not currently checked in.
func (r *GymLogRepo) FindOpenByUser(ctx context.Context, userID uint64) (*model.GymLog, error) {
	var g model.GymLog
	var exit sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, entry_time, exit_time, duration_hours
		 FROM gym_logs WHERE user_id = ? AND exit_time IS NULL LIMIT 1`,
		userID).Scan(&g.ID, &g.UserID, &g.EntryTime, &exit, &g.DurationHours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if exit.Valid {
		t := exit.Time
		g.ExitTime = &t
	}
	return &g, nil
}

// CheckIn opens a new session at the given instant and returns it.
func (r *GymLogRepo) CheckIn(ctx context.Context, userID uint64, at time.Time) (*model.GymLog, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO gym_logs (user_id, entry_time) VALUES (?, ?)`, userID, at.UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.GymLog{ID: uint64(id), UserID: userID, EntryTime: at.UTC()}, nil
}

// CheckOut closes the session, stamping the exit time and the duration
// in hours rounded to two decimals, and returns the updated row.
func (r *GymLogRepo) CheckOut(ctx context.Context, log *model.GymLog, at time.Time) (*model.GymLog, error) {
	exit := at.UTC()
	hours := RoundHours(exit.Sub(log.EntryTime))
	_, err := r.db.ExecContext(ctx,
		`UPDATE gym_logs SET exit_time = ?, duration_hours = ? WHERE id = ?`,
		exit, hours, log.ID)
	if err != nil {
		return nil, err
	}
	log.ExitTime = &exit
	log.DurationHours = hours
	return log, nil
}

// ListByUser returns the user's sessions, newest entry first.
func (r *GymLogRepo) ListByUser(ctx context.Context, userID uint64) ([]model.GymLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, entry_time, exit_time, duration_hours
		 FROM gym_logs WHERE user_id = ? ORDER BY entry_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	logs := make([]model.GymLog, 0)
	for rows.Next() {
		var g model.GymLog
		var exit sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.EntryTime, &exit, &g.DurationHours); err != nil {
			return nil, err
		}
		if exit.Valid {
			t := exit.Time
			g.ExitTime = &t
		}
		logs = append(logs, g)
	}
	return logs, rows.Err()
}

// RoundHours converts a session length to hours with two decimal
// places, matching how durations are displayed on the stats page.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
