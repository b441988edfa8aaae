// Package penknot is the logical core of a vector-curve editor: a store of
// cubic bezier curves whose endpoints can be latched into chains, grouped
// into compound shapes, and edited with linear undo/redo.
package penknot

import "errors"

// Store errors
var (
	// ErrUnknownID indicates that a curve id is not present in the store.
	ErrUnknownID = errors.New("unknown curve id")

	// ErrDuplicateID indicates that a curve id is already present in the store.
	ErrDuplicateID = errors.New("curve id already present")
)

// Latch errors
var (
	// ErrAlreadyLatched indicates that one of the requested edges already holds a latch.
	ErrAlreadyLatched = errors.New("edge already latched")

	// ErrNotLatched indicates that the two edges are not latched to each other.
	ErrNotLatched = errors.New("edges are not latched")

	// ErrInvalidLatch indicates a latch request that pins an edge to itself.
	ErrInvalidLatch = errors.New("cannot latch an edge to itself")

	// ErrLatchAsymmetry indicates a latch entry without its mirror.
	// This is a logic fault and is never repaired automatically.
	ErrLatchAsymmetry = errors.New("asymmetric latch entry")
)

// Group errors
var (
	// ErrNotFullyConnected indicates that a selection is not exactly one latched chain.
	ErrNotFullyConnected = errors.New("selection is not one fully connected chain")

	// ErrAlreadyGrouped indicates that a selected curve already belongs to a group.
	ErrAlreadyGrouped = errors.New("curve already belongs to a group")

	// ErrGroupNotFound indicates that a group id does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotSameGroup indicates that selected curves belong to different groups.
	ErrNotSameGroup = errors.New("curves are not part of the same group")

	// ErrEmptySelection indicates that an operation needs at least one curve.
	ErrEmptySelection = errors.New("no curves selected")
)

// History errors
var (
	// ErrHistoryAtBottom indicates that there is nothing left to undo.
	ErrHistoryAtBottom = errors.New("history at bottom")

	// ErrHistoryAtTop indicates that there is nothing left to redo.
	ErrHistoryAtTop = errors.New("history at top")

	// ErrCursorOutOfRange indicates a saved history cursor outside its log.
	ErrCursorOutOfRange = errors.New("history cursor out of range")

	// ErrUnknownAction indicates a history action kind that cannot be decoded.
	ErrUnknownAction = errors.New("unknown history action")
)

// Batch errors
var (
	// ErrBatchPending indicates that an operation is not allowed inside a batch.
	ErrBatchPending = errors.New("operation not allowed during batch")

	// ErrNoBatch indicates that there is no active batch.
	ErrNoBatch = errors.New("no active batch")

	// ErrBatchPoisoned indicates that a batch was poisoned by an inner rollback.
	ErrBatchPoisoned = errors.New("batch was poisoned by inner rollback")
)

// Dispatch errors
var (
	// ErrUnknownCommand indicates a command the dispatcher does not handle.
	ErrUnknownCommand = errors.New("unknown command")
)

// Storage errors
var (
	// ErrNoColdStorage indicates that save/load needs cold storage but none is configured.
	ErrNoColdStorage = errors.New("cold storage not configured")

	// ErrDocumentNotFound indicates that no saved document exists under the given id.
	ErrDocumentNotFound = errors.New("document not found")
)
