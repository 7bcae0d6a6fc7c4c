package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campussports/facility-booking/internal/model"
)

// MatchRepo persists live scoreboard entries.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo returns a new MatchRepo bound to the given database.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

// Create inserts a match and populates its generated ID.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO matches (sport_name, team1, team2, score1, score2, status)
		 VALUES (?,?,?,?,?,?)`,
		m.SportName, m.Team1, m.Team2, m.Score1, m.Score2, m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// UpdateScore updates the mutable scoreboard fields only; teams and
// sport are fixed once the match is created.
func (r *MatchRepo) UpdateScore(ctx context.Context, id uint64, score1, score2 uint32, status string) (*model.Match, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE matches SET score1 = ?, score2 = ?, status = ? WHERE id = ?`,
		score1, score2, status, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// GetByID returns one match, or sql.ErrNoRows.
func (r *MatchRepo) GetByID(ctx context.Context, id uint64) (*model.Match, error) {
	var m model.Match
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sport_name, team1, team2, score1, score2, status, created_at, updated_at
		 FROM matches WHERE id = ?`, id).
		Scan(&m.ID, &m.SportName, &m.Team1, &m.Team2, &m.Score1, &m.Score2, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns matches newest first, optionally narrowed by status
// and/or sport name.
func (r *MatchRepo) List(ctx context.Context, status, sportName string) ([]model.Match, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if sportName != "" {
		conds = append(conds, "sport_name = ?")
		args = append(args, sportName)
	}
	q := `SELECT id, sport_name, team1, team2, score1, score2, status, created_at, updated_at FROM matches`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]model.Match, 0)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.SportName, &m.Team1, &m.Team2, &m.Score1, &m.Score2, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Delete removes a match.
func (r *MatchRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
