package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeperClampsInterval(t *testing.T) {
	svc := NewReservationService(newMemStore(), nil)
	assert.Equal(t, 30*time.Second, NewSweeper(svc, 0).interval)
	assert.Equal(t, 30*time.Second, NewSweeper(svc, 100*time.Millisecond).interval)
	assert.Equal(t, 5*time.Second, NewSweeper(svc, 5*time.Second).interval)
}

func TestSweeperStopsOnCancel(t *testing.T) {
	svc := NewReservationService(newMemStore(), nil)
	w := NewSweeper(svc, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweeperExpiresOverdue(t *testing.T) {
	store := badmintonStore()
	svc := NewReservationService(store, nil)

	in := courtInput(1, 1)
	in.StartsAt = time.Now().UTC().Add(-2 * time.Hour)
	in.EndsAt = time.Now().UTC().Add(-time.Hour)
	b, err := svc.Reserve(context.Background(), in)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewSweeper(svc, time.Second).Run(ctx)

	deadline := time.After(3 * time.Second)
	for {
		store.mu.Lock()
		status := store.bookings[b.ID].Status
		store.mu.Unlock()
		if status == "EXPIRED" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("overdue booking was not swept")
		case <-time.After(100 * time.Millisecond):
		}
	}
}
