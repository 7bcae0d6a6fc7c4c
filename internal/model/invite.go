package model

import "time"

// Invite is a teammate-search post: a player looking for others to join
// them at a venue and time.  Invites stay listed while Visible is true;
// the author hides the post once the spot is filled.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – author of the invite.
//  Sport     – sport to play.
//  Venue     – where to meet.
//  PlayDate  – date of play, YYYY-MM-DD.
//  PlayTime  – time of play, HH:MM.
//  Name      – contact name shown on the post.
//  Email     – contact email.
//  Mobile    – contact phone number.
//  Visible   – whether the post is still listed.
//  CreatedAt – creation timestamp.
type Invite struct {
	ID        uint64    // invites.id
	UserID    uint64    // invites.user_id
	Sport     string    // invites.sport
	Venue     string    // invites.venue
	PlayDate  string    // invites.play_date
	PlayTime  string    // invites.play_time
	Name      string    // invites.name
	Email     string    // invites.email
	Mobile    string    // invites.mobile
	Visible   bool      // invites.visible
	CreatedAt time.Time // invites.created_at
}
