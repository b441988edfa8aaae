package penknot

import "fmt"

// ActionKind tags a history action.
type ActionKind string

const (
	KindMovedAnchor  ActionKind = "moved_anchor"
	KindSpawnedCurve ActionKind = "spawned_curve"
	KindDeletedCurve ActionKind = "deleted_curve"
	KindLatched      ActionKind = "latched"
	KindUnlatched    ActionKind = "unlatched"
)

// HistoryAction is one reversible structural delta. Every action carries
// enough in its own fields to be applied forward and backward.
type HistoryAction interface {
	Kind() ActionKind
	historyAction()
}

// MovedAnchor records a single anchor move. With Anchor == AnchorAll the
// positions are the curve's start point and the whole chain moved with it.
type MovedAnchor struct {
	Curve            BezierID `json:"curve"`
	Anchor           Anchor   `json:"anchor"`
	PreviousPosition Point    `json:"previous_position"`
	NewPosition      Point    `json:"new_position"`
}

// SpawnedCurve records the creation of a curve.
type SpawnedCurve struct {
	Curve    BezierID      `json:"curve"`
	Snapshot CurveSnapshot `json:"snapshot"`
}

// DeletedCurve records the removal of a curve together with its body.
type DeletedCurve struct {
	Curve    BezierID      `json:"curve"`
	Snapshot CurveSnapshot `json:"snapshot"`
}

// Latched records the installation of a mirrored latch pair.
type Latched struct {
	A CurveEdge `json:"a"`
	B CurveEdge `json:"b"`
}

// Unlatched records the removal of a mirrored latch pair.
type Unlatched struct {
	A CurveEdge `json:"a"`
	B CurveEdge `json:"b"`
}

func (MovedAnchor) Kind() ActionKind  { return KindMovedAnchor }
func (SpawnedCurve) Kind() ActionKind { return KindSpawnedCurve }
func (DeletedCurve) Kind() ActionKind { return KindDeletedCurve }
func (Latched) Kind() ActionKind      { return KindLatched }
func (Unlatched) Kind() ActionKind    { return KindUnlatched }

func (MovedAnchor) historyAction()  {}
func (SpawnedCurve) historyAction() {}
func (DeletedCurve) historyAction() {}
func (Latched) historyAction()      {}
func (Unlatched) historyAction()    {}

// History is an append-only action log with a cursor. The cursor is the index
// of the last applied action; -1 means everything is undone.
type History struct {
	actions []HistoryAction
	cursor  int
}

// NewHistory returns an empty log with the cursor at -1.
func NewHistory() *History {
	return &History{cursor: -1}
}

// Record appends the actions of one logical edit. If the cursor is behind the
// end, the tail beyond it is discarded first, once for the whole edit.
func (h *History) Record(actions ...HistoryAction) {
	if len(actions) == 0 {
		return
	}
	if h.cursor != len(h.actions)-1 {
		h.actions = h.actions[:h.cursor+1]
	}
	h.actions = append(h.actions, actions...)
	h.cursor = len(h.actions) - 1
}

// Cursor returns the index of the last applied action.
func (h *History) Cursor() int {
	return h.cursor
}

// Len returns the number of actions in the log.
func (h *History) Len() int {
	return len(h.actions)
}

// CanUndo reports whether an action is available to undo.
func (h *History) CanUndo() bool {
	return h.cursor > -1
}

// CanRedo reports whether an action is available to redo.
func (h *History) CanRedo() bool {
	return h.cursor+1 <= len(h.actions)-1
}

// At returns the action at index i.
func (h *History) At(i int) (HistoryAction, bool) {
	if i < 0 || i >= len(h.actions) {
		return nil, false
	}
	return h.actions[i], true
}

// Actions returns a copy of the log.
func (h *History) Actions() []HistoryAction {
	return append([]HistoryAction(nil), h.actions...)
}

// current returns the action the next undo would revert.
func (h *History) current() (HistoryAction, error) {
	if h.cursor == -1 {
		return nil, ErrHistoryAtBottom
	}
	return h.actions[h.cursor], nil
}

// next returns the action the next redo would apply.
func (h *History) next() (HistoryAction, error) {
	if h.cursor+1 > len(h.actions)-1 {
		return nil, ErrHistoryAtTop
	}
	return h.actions[h.cursor+1], nil
}

// restore replaces the log wholesale. The cursor must index an action, or be
// -1 for a fully undone log.
func (h *History) restore(actions []HistoryAction, cursor int) error {
	if cursor < -1 || cursor > len(actions)-1 {
		return fmt.Errorf("%w: %d with %d actions", ErrCursorOutOfRange, cursor, len(actions))
	}
	h.actions = actions
	h.cursor = cursor
	return nil
}
