// Package trace provides structured event recording for process-tree runs.
// Every human-readable log line of a run has one EventRecord twin.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventKind names what a log line describes.
type EventKind string

const (
	EventCreateRoot    EventKind = "create-root"
	EventSpawnBatch    EventKind = "spawn-batch"
	EventSpawnChild    EventKind = "spawn-child"
	EventReceiveParent EventKind = "receive-parent" // love from the parent, the receiver converts
	EventReceiveChild  EventKind = "receive-child"  // love drained from one child pipe
	EventConvert       EventKind = "convert"        // hater becomes lover after child love
	EventSendChild     EventKind = "send-child"
	EventSendParent    EventKind = "send-parent"
	EventStop          EventKind = "stop"
	EventSummary       EventKind = "summary"
)

// EventRecord captures a single log line as data.
type EventRecord struct {
	Index       int       `json:"index"` // position in the run log
	Step        int       `json:"step"`  // dispatch number, 0 outside dispatches
	Kind        EventKind `json:"kind"`
	PID         int       `json:"pid,omitempty"`
	Peer        int       `json:"peer,omitempty"` // other end of a transfer, or the spawned child
	Generation  int       `json:"generation"`
	ProcessKind string    `json:"process_kind,omitempty"` // kind of PID (or of the child for spawns) after the event
	Count       int       `json:"count,omitempty"`        // batch size for spawn-batch
}
