package service

import "context"

// Notifier is the occupancy-update fan-out contract.  After every
// committed mutation of facility state the service fires one
// OCCUPANCY_UPDATE signal carrying only a wall-clock timestamp, so
// connected clients refetch fresh state.  Delivery is best effort and
// at-least-once; a failed publish is logged by the caller and never
// fails the request.  The RabbitMQ implementation lives in the queue
// package; the dependency is injected rather than looked up globally.
type Notifier interface {
	OccupancyChanged(ctx context.Context) error
}

// NopNotifier discards every signal.  Used in tests and when the broker
// is not configured.
type NopNotifier struct{}

// OccupancyChanged implements Notifier.
func (NopNotifier) OccupancyChanged(context.Context) error { return nil }
