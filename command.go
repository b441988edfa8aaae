package penknot

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("penknot.dispatch")

// Command is an edit intent from the input layer.
type Command interface {
	Name() string
	command()
}

// SpawnCommand creates a curve.
type SpawnCommand struct {
	Positions Positions
	Color     string
}

// MoveAnchorCommand moves one anchor, or the whole chain with AnchorAll.
type MoveAnchorCommand struct {
	Curve    BezierID
	Anchor   Anchor
	Position Point
}

// LatchCommand pins two endpoints together.
type LatchCommand struct {
	A CurveEdge
	B CurveEdge
}

// UnlatchCommand separates two latched endpoints.
type UnlatchCommand struct {
	A CurveEdge
	B CurveEdge
}

// DeleteCommand removes curves.
type DeleteCommand struct {
	Curves []BezierID
}

// FormGroupCommand groups one complete chain.
type FormGroupCommand struct {
	Curves []BezierID
}

// DissolveGroupCommand removes a group.
type DissolveGroupCommand struct {
	Group GroupID
}

// UndoCommand steps the history back.
type UndoCommand struct{}

// RedoCommand steps the history forward.
type RedoCommand struct{}

func (SpawnCommand) Name() string         { return "spawn" }
func (MoveAnchorCommand) Name() string    { return "move_anchor" }
func (LatchCommand) Name() string         { return "latch" }
func (UnlatchCommand) Name() string       { return "unlatch" }
func (DeleteCommand) Name() string        { return "delete" }
func (FormGroupCommand) Name() string     { return "form_group" }
func (DissolveGroupCommand) Name() string { return "dissolve_group" }
func (UndoCommand) Name() string          { return "undo" }
func (RedoCommand) Name() string          { return "redo" }

func (SpawnCommand) command()         {}
func (MoveAnchorCommand) command()    {}
func (LatchCommand) command()         {}
func (UnlatchCommand) command()       {}
func (DeleteCommand) command()        {}
func (FormGroupCommand) command()     {}
func (DissolveGroupCommand) command() {}
func (UndoCommand) command()          {}
func (RedoCommand) command()          {}

// Dispatch applies one command to the editor.
func (e *Editor) Dispatch(ctx context.Context, cmd Command) (ChangeResult, error) {
	if cmd == nil {
		return ChangeResult{}, fmt.Errorf("%w: nil", ErrUnknownCommand)
	}
	_, span := tracer.Start(ctx, "penknot.dispatch",
		trace.WithAttributes(
			attribute.String("command", cmd.Name()),
			attribute.String("document", e.id),
		),
	)
	defer span.End()

	res, err := e.dispatch(cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.Int("changed_curves", len(res.Curves)),
		attribute.Int("cursor", res.Cursor),
	)
	return res, nil
}

func (e *Editor) dispatch(cmd Command) (ChangeResult, error) {
	switch c := cmd.(type) {
	case SpawnCommand:
		_, res, err := e.Spawn(c.Positions, c.Color)
		return res, err
	case MoveAnchorCommand:
		return e.MoveAnchor(c.Curve, c.Anchor, c.Position)
	case LatchCommand:
		return e.Latch(c.A, c.B)
	case UnlatchCommand:
		return e.Unlatch(c.A, c.B)
	case DeleteCommand:
		return e.Delete(c.Curves)
	case FormGroupCommand:
		_, res, err := e.FormGroup(c.Curves)
		return res, err
	case DissolveGroupCommand:
		_, res, err := e.DissolveGroup(c.Group)
		return res, err
	case UndoCommand:
		return e.Undo()
	case RedoCommand:
		return e.Redo()
	default:
		return ChangeResult{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// Outcome is the result of one queued command.
type Outcome struct {
	Command Command
	Result  ChangeResult
	Err     error
}

// Enqueue queues a command for the next Tick. It is safe to call from any
// goroutine.
func (e *Editor) Enqueue(cmds ...Command) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	e.queue = append(e.queue, cmds...)
}

// Pending returns the number of queued commands.
func (e *Editor) Pending() int {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return len(e.queue)
}

// Tick drains the queue and applies every command in order, one at a time.
// Commands enqueued while the tick runs wait for the next tick. If ctx is
// cancelled, the remaining commands are put back at the head of the queue.
func (e *Editor) Tick(ctx context.Context) []Outcome {
	e.queueMu.Lock()
	cmds := e.queue
	e.queue = nil
	e.queueMu.Unlock()

	out := make([]Outcome, 0, len(cmds))
	for i, cmd := range cmds {
		if ctx.Err() != nil {
			e.queueMu.Lock()
			e.queue = append(cmds[i:len(cmds):len(cmds)], e.queue...)
			e.queueMu.Unlock()
			break
		}
		res, err := e.Dispatch(ctx, cmd)
		if err != nil && !isBoundary(err) {
			e.logger.Debug("command failed", "command", cmd.Name(), "error", err)
		}
		out = append(out, Outcome{Command: cmd, Result: res, Err: err})
	}
	return out
}
