package model

import "time"

// Match is one entry on the live scoreboard.  Matches are maintained by
// admins; score updates fan out through the occupancy relay so connected
// scoreboards refetch.
//
// Fields:
//  ID        – primary key identifier.
//  SportName – sport being played, free text matching a facility name.
//  Team1     – first team name.
//  Team2     – second team name.
//  Score1    – first team score.
//  Score2    – second team score.
//  Status    – display status such as "live" or "finished".
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Match struct {
	ID        uint64    // matches.id
	SportName string    // matches.sport_name
	Team1     string    // matches.team1
	Team2     string    // matches.team2
	Score1    uint32    // matches.score1
	Score2    uint32    // matches.score2
	Status    string    // matches.status
	CreatedAt time.Time // matches.created_at
	UpdatedAt time.Time // matches.updated_at
}
