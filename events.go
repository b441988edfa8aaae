package penknot

import "fmt"

// EventKind identifies a notification for the entity layer.
type EventKind int

const (
	// CurveCreated asks the entity layer to materialize a curve.
	CurveCreated EventKind = iota

	// CurveDestroyed asks the entity layer to despawn a curve.
	CurveDestroyed

	// CurveChanged means geometry or latches changed and visuals need a refresh.
	CurveChanged

	// GroupFormed means a group now exists (or came back after undo).
	GroupFormed

	// GroupDissolved means a group was dissolved or invalidated.
	GroupDissolved
)

func (k EventKind) String() string {
	switch k {
	case CurveCreated:
		return "curve-created"
	case CurveDestroyed:
		return "curve-destroyed"
	case CurveChanged:
		return "curve-changed"
	case GroupFormed:
		return "group-formed"
	case GroupDissolved:
		return "group-dissolved"
	default:
		return "unknown"
	}
}

// Event is a message from the core to the entity layer. The core never calls
// into rendering; the adapter drains events once per tick.
type Event struct {
	Kind  EventKind
	Curve BezierID
	Group GroupID
}

func (ev Event) String() string {
	if ev.Group != "" {
		return fmt.Sprintf("%s %s", ev.Kind, ev.Group)
	}
	return fmt.Sprintf("%s %s", ev.Kind, ev.Curve)
}

// emit queues an event.
func (e *Editor) emit(ev Event) {
	e.events = append(e.events, ev)
}

// DrainEvents returns and clears the queued events.
func (e *Editor) DrainEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.events
	e.events = nil
	return out
}

// BindLocation is called by the entity layer once a CurveCreated event has
// been materialized.
func (e *Editor) BindLocation(id BezierID, loc LocationHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.BindLocation(id, loc)
}

// Location returns the render location bound to a curve.
func (e *Editor) Location(id BezierID) (LocationHandle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Location(id)
}
