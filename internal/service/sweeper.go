package service

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically expires overdue bookings on the server side.  The
// original system relied on a connected client's countdown timer to
// notice the overdue condition, which left unvisited bookings active in
// storage indefinitely; a recurring sweep removes that dependency while
// keeping the same expire semantics and notification contract.
type Sweeper struct {
	svc      *ReservationService
	interval time.Duration
}

// NewSweeper constructs a Sweeper.  Intervals below one second are
// raised to the 30 second default.
func NewSweeper(svc *ReservationService, interval time.Duration) *Sweeper {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks, sweeping once per interval until ctx is cancelled.  It is
// meant to be launched as a goroutine from main.  A failed sweep is
// logged and retried on the next tick; the loop itself never dies.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	log.Printf("sweeper: running every %s", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	n, err := w.svc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("sweeper: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: expired %d overdue booking(s)", n)
	}
}
