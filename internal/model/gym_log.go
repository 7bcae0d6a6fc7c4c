package model

import "time"

// GymLog records one gym attendance session.  A scan with no open log
// checks the user in; a scan while a log is open checks them out and
// stamps the duration.  An open session has a null ExitTime.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who scanned in.
//  EntryTime     – when the user checked in.
//  ExitTime      – when the user checked out (null while inside).
//  DurationHours – session length in hours, two decimal places, set on
//                  check-out.
type GymLog struct {
	ID            uint64     // gym_logs.id
	UserID        uint64     // gym_logs.user_id
	EntryTime     time.Time  // gym_logs.entry_time
	ExitTime      *time.Time // gym_logs.exit_time (nullable)
	DurationHours float64    // gym_logs.duration_hours
}
