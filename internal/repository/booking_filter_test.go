package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhereClauseEmpty(t *testing.T) {
	where, args := BookingFilter{}.whereClause()
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestWhereClauseSingleConditions(t *testing.T) {
	where, args := BookingFilter{UserID: 7}.whereClause()
	assert.Equal(t, " WHERE user_id = ?", where)
	assert.Equal(t, []interface{}{uint64(7)}, args)

	where, args = BookingFilter{Status: "active"}.whereClause()
	assert.Equal(t, " WHERE status = ?", where)
	assert.Equal(t, []interface{}{"ACTIVE"}, args) // status is upper-cased

	where, args = BookingFilter{Date: "2026-09-01"}.whereClause()
	assert.Equal(t, " WHERE DATE(starts_at) = ?", where)
	assert.Equal(t, []interface{}{"2026-09-01"}, args)
}

func TestWhereClauseTimeOverlap(t *testing.T) {
	at := time.Date(2026, 9, 1, 14, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	where, args := BookingFilter{TimeOverlap: &at}.whereClause()
	assert.Equal(t, " WHERE starts_at <= ? AND ends_at > ?", where)
	// both placeholders get the same UTC instant
	assert.Equal(t, []interface{}{at.UTC(), at.UTC()}, args)
}

func TestWhereClauseCombined(t *testing.T) {
	at := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	f := BookingFilter{UserID: 3, Status: "EXPIRED", Date: "2026-09-01", TimeOverlap: &at}
	where, args := f.whereClause()
	assert.Equal(t,
		" WHERE user_id = ? AND status = ? AND DATE(starts_at) = ? AND starts_at <= ? AND ends_at > ?",
		where)
	assert.Len(t, args, 5)
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 1.5, RoundHours(90*time.Minute))
	assert.Equal(t, 0.03, RoundHours(100*time.Second)) // 0.0277... rounds up
	assert.Equal(t, 0.0, RoundHours(0))
	assert.Equal(t, 2.0, RoundHours(2*time.Hour))
}

func TestDefaultCourtLabel(t *testing.T) {
	assert.Equal(t, "Court 1", defaultCourtLabel(1))
	assert.Equal(t, "Court 12", defaultCourtLabel(12))
}
