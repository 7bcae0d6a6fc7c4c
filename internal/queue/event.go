// Package queue implements the occupancy-update relay over RabbitMQ:
// a fanout publisher that tells every connected observer "facility state
// changed, refetch", and a background consumer that records the events.
package queue

// OccupancyExchange is the durable fanout exchange occupancy events are
// published to.  Each observer binds its own queue to it.
const OccupancyExchange = "occupancy.update"

// OccupancyEventName is the single event name carried by the relay.
const OccupancyEventName = "OCCUPANCY_UPDATE"

// OccupancyEvent is the full relay payload.  It deliberately carries no
// state beyond a wall-clock timestamp: observers refetch fresh facility
// state instead of trusting a snapshot that may already be stale.
type OccupancyEvent struct {
	Event     string `json:"event"`     // always OCCUPANCY_UPDATE
	Timestamp string `json:"timestamp"` // RFC3339 UTC wall-clock time
}
