// Package telemetry provides collision statistics, performance timing and
// CSV output for headless runs.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventTest       EventType = iota // a shape pair went through the narrow phase
	EventManifold                    // the pair overlapped
	EventResolved                    // an impulse was applied
	EventSeparating                  // resolution skipped, bodies already separating
	EventTrigger                     // overlap involving a trigger shape
)

func (e EventType) String() string {
	switch e {
	case EventTest:
		return "test"
	case EventManifold:
		return "manifold"
	case EventResolved:
		return "resolved"
	case EventSeparating:
		return "separating"
	case EventTrigger:
		return "trigger"
	}
	return "unknown"
}
