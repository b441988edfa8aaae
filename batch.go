package penknot

// batchState tracks an open batch. Edits made inside a batch are applied
// immediately but their actions are held back and recorded as one logical
// edit on the outermost commit.
type batchState struct {
	depth    int
	name     string
	poisoned bool
	pending  []HistoryAction
}

// BatchDepth returns the current nesting depth (0 when no batch is open).
func (e *Editor) BatchDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.batch == nil {
		return 0
	}
	return e.batch.depth
}

// InBatch reports whether a batch is open.
func (e *Editor) InBatch() bool {
	return e.BatchDepth() > 0
}

// BatchStart opens a batch, or nests inside the open one.
func (e *Editor) BatchStart(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batch == nil {
		e.batch = &batchState{depth: 1, name: name}
		e.logger.Debug("batch started", "name", name)
		return nil
	}
	e.batch.depth++
	return nil
}

// BatchCommit closes one level. The outermost commit records every pending
// action with a single truncation of the history tail. A poisoned batch is
// rolled back instead and ErrBatchPoisoned is returned.
func (e *Editor) BatchCommit() (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batch == nil {
		return ChangeResult{}, ErrNoBatch
	}

	e.batch.depth--
	if e.batch.depth > 0 {
		return ChangeResult{Cursor: e.history.Cursor()}, nil
	}

	b := e.batch
	e.batch = nil
	if b.poisoned {
		cs := newChangeSet()
		if err := e.unwind(cs, b.pending); err != nil {
			return e.result(cs), err
		}
		e.logger.Warn("batch poisoned, rolled back", "name", b.name, "actions", len(b.pending))
		return e.result(cs), ErrBatchPoisoned
	}

	e.commit(b.pending)
	e.logger.Debug("batch committed", "name", b.name, "actions", len(b.pending), "cursor", e.history.Cursor())
	return ChangeResult{Cursor: e.history.Cursor()}, nil
}

// BatchRollback abandons one level. An inner rollback poisons the batch so
// the outer commit rolls back; the outermost rollback reverts every pending
// action immediately.
func (e *Editor) BatchRollback() (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batch == nil {
		return ChangeResult{}, ErrNoBatch
	}

	e.batch.poisoned = true
	e.batch.depth--
	if e.batch.depth > 0 {
		return ChangeResult{Cursor: e.history.Cursor()}, nil
	}

	b := e.batch
	e.batch = nil
	cs := newChangeSet()
	err := e.unwind(cs, b.pending)
	e.logger.Debug("batch rolled back", "name", b.name, "actions", len(b.pending))
	return e.result(cs), err
}

// unwind reverts actions newest first.
func (e *Editor) unwind(cs *changeSet, actions []HistoryAction) error {
	for i := len(actions) - 1; i >= 0; i-- {
		if err := e.revert(cs, actions[i]); err != nil {
			return err
		}
	}
	return nil
}
