package penknot

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommitRecordsOneLogicalEdit(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	spawn(t, e, segment(10, 20))
	_, err := e.Undo()
	require.NoError(t, err)
	require.Len(t, e.HistoryActions(), 2)

	require.NoError(t, e.BatchStart("drag"))
	assert.True(t, e.InBatch())

	_, err = e.MoveAnchor(a, AnchorStart, Point{X: 1, Y: 1})
	require.NoError(t, err)
	_, err = e.MoveAnchor(a, AnchorEnd, Point{X: 9, Y: 1})
	require.NoError(t, err)
	assert.Len(t, e.HistoryActions(), 2, "nothing reaches the log before commit")

	res, err := e.BatchCommit()
	require.NoError(t, err)
	assert.False(t, e.InBatch())
	assert.Equal(t, 2, res.Cursor)

	actions := e.HistoryActions()
	require.Len(t, actions, 3, "the undone spawn was cut once and both moves kept")
	assert.Equal(t, KindSpawnedCurve, actions[0].Kind())
	assert.Equal(t, KindMovedAnchor, actions[1].Kind())
	assert.Equal(t, KindMovedAnchor, actions[2].Kind())

	_, err = e.Redo()
	assert.ErrorIs(t, err, ErrHistoryAtTop)
}

func TestBatchRollbackRevertsEdits(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	before := captureState(t, e)

	require.NoError(t, e.BatchStart("scratch"))
	c := spawn(t, e, segment(10, 20))
	_, err := e.Latch(end(a), start(c))
	require.NoError(t, err)
	_, err = e.MoveAnchor(c, AnchorEnd, Point{X: 30, Y: 3})
	require.NoError(t, err)

	_, err = e.BatchRollback()
	require.NoError(t, err)
	assert.False(t, e.InBatch())
	assert.Equal(t, before, captureState(t, e))

	d := spawn(t, e, segment(10, 20))
	assert.NotEqual(t, c, d, "rolled back ids are not reused")
}

func TestBatchCountsRecordedActionsOnCommit(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	moves := historyRecorded.WithLabelValues(string(KindMovedAnchor))
	base := testutil.ToFloat64(moves)

	require.NoError(t, e.BatchStart("abandoned"))
	_, err := e.MoveAnchor(a, AnchorStart, Point{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, base, testutil.ToFloat64(moves), "pending actions are not counted")
	_, err = e.BatchRollback()
	require.NoError(t, err)
	assert.Equal(t, base, testutil.ToFloat64(moves), "rolled back actions are never counted")

	require.NoError(t, e.BatchStart("kept"))
	_, err = e.MoveAnchor(a, AnchorStart, Point{X: 2, Y: 2})
	require.NoError(t, err)
	_, err = e.BatchCommit()
	require.NoError(t, err)
	assert.Equal(t, base+1, testutil.ToFloat64(moves))
}

func TestNestedRollbackPoisonsBatch(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	before := captureState(t, e)

	require.NoError(t, e.BatchStart("outer"))
	require.NoError(t, e.BatchStart("inner"))
	assert.Equal(t, 2, e.BatchDepth())

	_, err := e.MoveAnchor(a, AnchorStart, Point{X: -4, Y: 0})
	require.NoError(t, err)

	_, err = e.BatchRollback()
	require.NoError(t, err)
	assert.Equal(t, 1, e.BatchDepth())

	_, err = e.BatchCommit()
	assert.ErrorIs(t, err, ErrBatchPoisoned)
	assert.Equal(t, before, captureState(t, e))
}

func TestBatchGuards(t *testing.T) {
	e := New(Options{})
	spawn(t, e, segment(0, 10))

	_, err := e.BatchCommit()
	assert.ErrorIs(t, err, ErrNoBatch)
	_, err = e.BatchRollback()
	assert.ErrorIs(t, err, ErrNoBatch)

	require.NoError(t, e.BatchStart(""))
	_, err = e.Undo()
	assert.ErrorIs(t, err, ErrBatchPending)
	_, err = e.Redo()
	assert.ErrorIs(t, err, ErrBatchPending)
	_, err = e.Snapshot()
	assert.ErrorIs(t, err, ErrBatchPending)

	_, err = e.BatchCommit()
	require.NoError(t, err)
	assert.Equal(t, 0, e.HistoryCursor(), "an empty batch records nothing")
}
