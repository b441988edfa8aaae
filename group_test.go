package penknot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormGroupChain(t *testing.T) {
	e := New(Options{SampleCount: 4})
	a, b, c := abcChain(t, e)
	cursor := e.HistoryCursor()

	gid, res, err := e.FormGroup([]BezierID{c, a, b})
	require.NoError(t, err)
	assert.NotEmpty(t, gid)
	assert.Equal(t, []BezierID{a, b, c}, res.Curves)
	assert.Equal(t, []GroupID{gid}, res.Groups)
	assert.Equal(t, cursor, e.HistoryCursor(), "grouping is not a history action")

	for _, id := range []BezierID{a, b, c} {
		got, ok, err := e.GroupOf(id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, gid, got)
	}

	g, err := e.Group(gid)
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a, b, c}, g.Members)

	table, err := e.GroupTable(gid)
	require.NoError(t, err)
	assert.Len(t, table.Points, 13, "three 5-point tables with the two joints shared")
	assert.InDelta(t, 30.0, table.Length, 1e-9)
	assert.Equal(t, Point{X: 0}, table.Points[0])
	assert.Equal(t, Point{X: 30}, table.Points[12])
}

func TestFormGroupRejections(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	loose := spawn(t, e, segment(50, 60))

	_, _, err := e.FormGroup([]BezierID{a, c})
	assert.ErrorIs(t, err, ErrNotFullyConnected)

	_, _, err = e.FormGroup([]BezierID{a, b})
	assert.ErrorIs(t, err, ErrNotFullyConnected, "a partial chain is not the whole component")

	_, _, err = e.FormGroup([]BezierID{loose})
	assert.ErrorIs(t, err, ErrNotFullyConnected, "a lone unlatched curve cannot be grouped")

	_, _, err = e.FormGroup([]BezierID{a, b, c, loose})
	assert.ErrorIs(t, err, ErrNotFullyConnected)

	_, _, err = e.FormGroup(nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, _, err = e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)
	_, _, err = e.FormGroup([]BezierID{a, b, c})
	assert.ErrorIs(t, err, ErrAlreadyGrouped)
}

func TestDissolveGroup(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	gid, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)

	freed, res, err := e.DissolveGroup(gid)
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a, b, c}, freed)
	assert.Equal(t, []GroupID{gid}, res.Groups)
	assert.Empty(t, e.Groups())

	_, ok, err := e.GroupOf(a)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = e.DissolveGroup(gid)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = e.GroupTable(gid)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestDissolveSelection(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	d := spawn(t, e, segment(30, 40))
	_, err := e.Latch(end(c), start(d))
	require.NoError(t, err)
	_, _, err = e.FormGroup([]BezierID{a, b, c, d})
	require.NoError(t, err)

	_, _, err = e.DissolveSelection([]BezierID{a, b})
	assert.ErrorIs(t, err, ErrNotFullyConnected, "selection must cover the whole chain")

	x := spawn(t, e, segment(100, 110))
	_, _, err = e.DissolveSelection([]BezierID{a, b, c, d, x})
	assert.ErrorIs(t, err, ErrNotSameGroup)

	freed, _, err := e.DissolveSelection([]BezierID{d, c, b, a})
	require.NoError(t, err)
	assert.Equal(t, []BezierID{a, b, c, d}, freed)
}

func TestGroupedCurvesCannotBeUnlatched(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	_, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)

	_, err = e.Unlatch(end(a), start(b))
	assert.ErrorIs(t, err, ErrAlreadyGrouped)
	require.NoError(t, e.CheckLatches())
}

func TestGroupTableRecomputedAfterMemberMove(t *testing.T) {
	e := New(Options{SampleCount: 4})
	a, b, c := abcChain(t, e)
	gid, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)

	before, err := e.GroupTable(gid)
	require.NoError(t, err)

	res, err := e.MoveAnchor(c, AnchorEnd, Point{X: 30, Y: 40})
	require.NoError(t, err)
	assert.Equal(t, []GroupID{gid}, res.Groups)

	after, err := e.GroupTable(gid)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 30, Y: 40}, after.Points[len(after.Points)-1])
	assert.Greater(t, after.Length, before.Length)
}

func TestDeletingMemberRetiresGroupAndUndoRestoresIt(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	gid, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)
	grouped := captureState(t, e)

	_, err = e.Delete([]BezierID{c})
	require.NoError(t, err)
	assert.Empty(t, e.Groups())
	for _, id := range []BezierID{a, b} {
		_, ok, err := e.GroupOf(id)
		require.NoError(t, err)
		assert.False(t, ok, "survivor %s loses its group tag", id)
	}

	// Delete recorded Unlatched(b.End, c.Start) then DeletedCurve(c).
	_, err = e.Undo()
	require.NoError(t, err)
	assert.Empty(t, e.Groups(), "c is back but not latched yet")

	_, err = e.Undo()
	require.NoError(t, err)
	assert.Equal(t, []GroupID{gid}, e.Groups())
	assert.Equal(t, grouped, captureState(t, e))

	_, err = e.Redo()
	require.NoError(t, err)
	assert.Empty(t, e.Groups())
	_, err = e.Redo()
	require.NoError(t, err)
	assert.False(t, e.store.Has(c))
}

func TestLatchingOutsiderRetiresGroup(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	gid, _, err := e.FormGroup([]BezierID{a, b})
	assert.ErrorIs(t, err, ErrNotFullyConnected)

	_, err = e.Unlatch(end(b), start(c))
	require.NoError(t, err)
	gid, _, err = e.FormGroup([]BezierID{a, b})
	require.NoError(t, err)

	_, err = e.Latch(end(b), start(c))
	require.NoError(t, err)
	assert.Empty(t, e.Groups(), "the group no longer covers its whole chain")

	_, err = e.Undo()
	require.NoError(t, err)
	assert.Equal(t, []GroupID{gid}, e.Groups())
}

func TestLiveUnlatchDoesNotRestoreGroup(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	b := spawn(t, e, segment(10, 20))
	_, err := e.Latch(end(a), start(b))
	require.NoError(t, err)
	gid, _, err := e.FormGroup([]BezierID{a, b})
	require.NoError(t, err)

	c := spawn(t, e, segment(-10, 0))
	_, err = e.Latch(end(c), start(a))
	require.NoError(t, err)
	assert.Empty(t, e.Groups())

	_, err = e.Unlatch(end(c), start(a))
	require.NoError(t, err)
	assert.Empty(t, e.Groups(), "a live unlatch does not bring the group back")
	ca, err := e.Curve(a)
	require.NoError(t, err)
	_, ok := ca.GroupID()
	assert.False(t, ok)

	_, err = e.Undo()
	require.NoError(t, err)
	assert.Empty(t, e.Groups(), "the chain still reaches c")
	_, err = e.Undo()
	require.NoError(t, err)
	assert.Equal(t, []GroupID{gid}, e.Groups(), "undoing the latch does")
}
