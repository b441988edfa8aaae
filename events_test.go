package penknot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsFollowLifecycle(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))

	events := e.DrainEvents()
	require.Equal(t, []Event{{Kind: CurveCreated, Curve: a}}, events)
	assert.Empty(t, e.DrainEvents(), "draining clears the queue")

	require.NoError(t, e.BindLocation(a, 1234))
	loc, ok := e.Location(a)
	require.True(t, ok)
	assert.Equal(t, 1234, loc)

	_, err := e.Delete([]BezierID{a})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: CurveDestroyed, Curve: a}}, e.DrainEvents())
	_, ok = e.Location(a)
	assert.False(t, ok)

	_, err = e.Undo()
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: CurveCreated, Curve: a}}, e.DrainEvents(), "respawn goes through the creation path")
	_, ok = e.Location(a)
	assert.False(t, ok, "the entity layer binds the new location again")
}

func TestGroupEvents(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	e.DrainEvents()

	gid, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: GroupFormed, Group: gid}}, e.DrainEvents())

	_, err = e.MoveAnchor(a, AnchorStart, Point{X: -1, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: CurveChanged, Curve: a}}, e.DrainEvents())

	_, _, err = e.DissolveGroup(gid)
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: GroupDissolved, Group: gid}}, e.DrainEvents())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "curve-created b3", Event{Kind: CurveCreated, Curve: 3}.String())
	assert.Equal(t, "group-formed g1", Event{Kind: GroupFormed, Group: "g1"}.String())
}
