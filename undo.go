package penknot

import "fmt"

// Undo reverts the action at the cursor and moves the cursor back one step.
// At the bottom of the history it returns ErrHistoryAtBottom and changes nothing.
func (e *Editor) Undo() (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.batch != nil {
		return ChangeResult{Cursor: e.history.Cursor()}, ErrBatchPending
	}
	action, err := e.history.current()
	if err != nil {
		historyBoundary.WithLabelValues("undo").Inc()
		e.logger.Info("at bottom of history", "cursor", e.history.Cursor())
		return ChangeResult{Cursor: e.history.Cursor()}, err
	}

	cs := newChangeSet()
	if err := e.revert(cs, action); err != nil {
		e.logger.Error("undo failed", "kind", action.Kind(), "cursor", e.history.Cursor(), "error", err)
		return e.result(cs), err
	}
	e.history.cursor--
	historyApplied.WithLabelValues("undo", string(action.Kind())).Inc()
	e.logger.Debug("undo", "kind", action.Kind(), "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// Redo applies the action after the cursor and moves the cursor forward.
// At the top of the history it returns ErrHistoryAtTop and changes nothing.
func (e *Editor) Redo() (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.batch != nil {
		return ChangeResult{Cursor: e.history.Cursor()}, ErrBatchPending
	}
	action, err := e.history.next()
	if err != nil {
		historyBoundary.WithLabelValues("redo").Inc()
		e.logger.Info("at top of history", "cursor", e.history.Cursor())
		return ChangeResult{Cursor: e.history.Cursor()}, err
	}

	cs := newChangeSet()
	if err := e.replay(cs, action); err != nil {
		e.logger.Error("redo failed", "kind", action.Kind(), "cursor", e.history.Cursor(), "error", err)
		return e.result(cs), err
	}
	e.history.cursor++
	historyApplied.WithLabelValues("redo", string(action.Kind())).Inc()
	e.logger.Debug("redo", "kind", action.Kind(), "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// revert applies the inverse of an action. Nothing is recorded. Retired
// groups whose chain the step rebuilt come back; live edits never do that.
func (e *Editor) revert(cs *changeSet, action HistoryAction) error {
	var err error
	switch a := action.(type) {
	case MovedAnchor:
		err = e.applyMove(cs, a.Curve, a.Anchor, a.PreviousPosition)
	case SpawnedCurve:
		_, err = e.deleteCurves(cs, []BezierID{a.Curve})
	case DeletedCurve:
		err = e.spawnCurve(cs, a.Snapshot)
	case Latched:
		err = e.applyUnlatch(cs, a.A, a.B)
	case Unlatched:
		err = e.applyLatch(cs, a.A, a.B)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	if err != nil {
		return err
	}
	e.tryRestoreGroups(cs, actionCurves(action)...)
	return nil
}

// replay re-applies an action. Nothing is recorded.
func (e *Editor) replay(cs *changeSet, action HistoryAction) error {
	var err error
	switch a := action.(type) {
	case MovedAnchor:
		err = e.applyMove(cs, a.Curve, a.Anchor, a.NewPosition)
	case SpawnedCurve:
		err = e.spawnCurve(cs, a.Snapshot)
	case DeletedCurve:
		// Same path as an interactive delete, with the target as the selection.
		kept := e.selection.IDs()
		e.selection.Replace([]BezierID{a.Curve})
		err = e.deleteSelected(cs, false)
		e.selection.Replace(kept)
		e.selection.Remove(a.Curve)
	case Latched:
		err = e.applyLatch(cs, a.A, a.B)
	case Unlatched:
		err = e.applyUnlatch(cs, a.A, a.B)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	if err != nil {
		return err
	}
	e.tryRestoreGroups(cs, actionCurves(action)...)
	return nil
}

// actionCurves lists the curves whose structure an action changes.
func actionCurves(action HistoryAction) []BezierID {
	switch a := action.(type) {
	case SpawnedCurve:
		return []BezierID{a.Curve}
	case DeletedCurve:
		return []BezierID{a.Curve}
	case Latched:
		return []BezierID{a.A.ID, a.B.ID}
	case Unlatched:
		return []BezierID{a.A.ID, a.B.ID}
	default:
		return nil
	}
}
