package penknot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bogusCommand struct{}

func (bogusCommand) Name() string { return "bogus" }
func (bogusCommand) command()     {}

func TestDispatchDrivesEveryOperation(t *testing.T) {
	ctx := context.Background()
	e := New(Options{})

	for _, p := range []Positions{segment(0, 10), segment(10, 20)} {
		_, err := e.Dispatch(ctx, SpawnCommand{Positions: p, Color: "blue"})
		require.NoError(t, err)
	}
	a, b := BezierID(1), BezierID(2)

	res, err := e.Dispatch(ctx, LatchCommand{A: end(a), B: start(b)})
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a, b}, res.Curves)

	res, err = e.Dispatch(ctx, MoveAnchorCommand{Curve: a, Anchor: AnchorEnd, Position: Point{X: 11, Y: 0}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Cursor)

	res, err = e.Dispatch(ctx, FormGroupCommand{Curves: []BezierID{a, b}})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	gid := res.Groups[0]

	_, err = e.Dispatch(ctx, DissolveGroupCommand{Group: gid})
	require.NoError(t, err)

	_, err = e.Dispatch(ctx, UnlatchCommand{A: end(a), B: start(b)})
	require.NoError(t, err)

	_, err = e.Dispatch(ctx, DeleteCommand{Curves: []BezierID{b}})
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a}, e.Curves())

	res, err = e.Dispatch(ctx, UndoCommand{})
	require.NoError(t, err)
	assert.Equal(t, []BezierID{b}, res.Curves)

	_, err = e.Dispatch(ctx, RedoCommand{})
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a}, e.Curves())

	curve, err := e.Curve(a)
	require.NoError(t, err)
	assert.Equal(t, "blue", curve.Color)
}

func TestDispatchUnknownCommand(t *testing.T) {
	e := New(Options{})
	_, err := e.Dispatch(context.Background(), bogusCommand{})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = e.Dispatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestTickAppliesQueueInOrder(t *testing.T) {
	e := New(Options{})
	e.Enqueue(
		SpawnCommand{Positions: segment(0, 10)},
		SpawnCommand{Positions: segment(10, 20)},
		LatchCommand{A: end(1), B: start(2)},
		LatchCommand{A: end(1), B: start(2)},
		UndoCommand{},
	)
	assert.Equal(t, 5, e.Pending())

	out := e.Tick(context.Background())
	require.Len(t, out, 5)
	assert.Equal(t, 0, e.Pending())

	assert.NoError(t, out[2].Err)
	assert.ErrorIs(t, out[3].Err, ErrAlreadyLatched)
	assert.NoError(t, out[4].Err)
	assert.Equal(t, 1, out[4].Result.Cursor)

	_, ok, err := e.PartnerOf(1, EdgeEnd)
	require.NoError(t, err)
	assert.False(t, ok, "the undo reverted the one latch that was applied")
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	e := New(Options{})
	e.Enqueue(SpawnCommand{Positions: segment(0, 10)}, SpawnCommand{Positions: segment(10, 20)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := e.Tick(ctx)
	assert.Empty(t, out)
	assert.Equal(t, 2, e.Pending(), "unprocessed commands stay queued")

	out = e.Tick(context.Background())
	assert.Len(t, out, 2)
	assert.Len(t, e.Curves(), 2)
}
