package repository

import (
	"context"
	"database/sql"

	"github.com/campussports/facility-booking/internal/model"
)

// InviteRepo persists teammate-search posts.
type InviteRepo struct {
	db *sql.DB
}

// NewInviteRepo returns a new InviteRepo bound to the given database.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

// Create inserts an invite (visible by default) and populates its ID.
func (r *InviteRepo) Create(ctx context.Context, inv *model.Invite) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (user_id, sport, venue, play_date, play_time, name, email, mobile, visible)
		 VALUES (?,?,?,?,?,?,?,?,TRUE)`,
		inv.UserID, inv.Sport, inv.Venue, inv.PlayDate, inv.PlayTime, inv.Name, inv.Email, inv.Mobile)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	inv.Visible = true
	return nil
}

// ListVisible returns every listed invite, newest first.
func (r *InviteRepo) ListVisible(ctx context.Context) ([]model.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, sport, venue, play_date, play_time, name, email, mobile, visible, created_at
		 FROM invites WHERE visible = TRUE ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invites := make([]model.Invite, 0)
	for rows.Next() {
		var inv model.Invite
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Sport, &inv.Venue, &inv.PlayDate, &inv.PlayTime,
			&inv.Name, &inv.Email, &inv.Mobile, &inv.Visible, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// ownerOf returns the author of an invite, or sql.ErrNoRows.
func (r *InviteRepo) ownerOf(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM invites WHERE id = ?`, id).Scan(&owner)
	return owner, err
}

// Hide unlists an invite.  Only the author may hide their post;
// ErrForbidden otherwise.
func (r *InviteRepo) Hide(ctx context.Context, id, userID uint64) error {
	owner, err := r.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `UPDATE invites SET visible = FALSE WHERE id = ?`, id)
	return err
}

// Delete removes an invite.  The author may delete their own post;
// admins (isAdmin true) may delete any.
func (r *InviteRepo) Delete(ctx context.Context, id, userID uint64, isAdmin bool) error {
	owner, err := r.ownerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID && !isAdmin {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM invites WHERE id = ?`, id)
	return err
}
