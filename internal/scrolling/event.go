package scrolling

import "time"

// EventKind identifies a capture progress event
type EventKind string

const (
	EventStarted   EventKind = "started"   // the run left the queue
	EventFrame     EventKind = "frame"     // a new frame was stored
	EventDuplicate EventKind = "duplicate" // a capture repeated the previous one
	EventFailure   EventKind = "failure"   // a collaborator failed, loop ended
	EventCancelled EventKind = "cancelled" // the caller cancelled, loop ended
	EventStitched  EventKind = "stitched"  // the final image is ready
)

// Event reports capture progress to observers
type Event struct {
	Kind      EventKind `json:"kind"`
	Iteration int       `json:"iteration"`
	Frames    int       `json:"frames"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}
