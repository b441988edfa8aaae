package penknot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertGetRemove(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Insert(newCurve(5, segment(0, 10), "red")))
	assert.True(t, s.Has(5))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, BezierID(6), s.NextID(), "allocator moves past inserted ids")

	err := s.Insert(newCurve(5, segment(0, 10), ""))
	assert.ErrorIs(t, err, ErrDuplicateID)

	c, err := s.Get(5)
	require.NoError(t, err)
	assert.Equal(t, "red", c.Color)

	_, err = s.Get(6)
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = s.GetMut(6)
	assert.ErrorIs(t, err, ErrUnknownID)

	removed, severed, err := s.Remove(5)
	require.NoError(t, err)
	assert.Equal(t, BezierID(5), removed.ID)
	assert.Empty(t, severed)
	assert.False(t, s.Has(5))

	_, _, err = s.Remove(5)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestStoreRemoveSeversPartner(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(newCurve(1, segment(0, 10), "")))
	require.NoError(t, s.Insert(newCurve(2, segment(10, 20), "")))
	require.NoError(t, s.latch(end(1), start(2)))

	_, severed, err := s.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, []LatchPair{{A: end(1), B: start(2)}}, severed)

	partner, err := s.Get(2)
	require.NoError(t, err)
	assert.False(t, partner.IsLatched(EdgeStart))
	require.NoError(t, s.CheckLatches())
}

func TestStoreLocationIndex(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(newCurve(1, segment(0, 10), "")))

	err := s.BindLocation(2, "entity-2")
	assert.ErrorIs(t, err, ErrUnknownID)

	require.NoError(t, s.BindLocation(1, "entity-1"))
	loc, ok := s.Location(1)
	require.True(t, ok)
	assert.Equal(t, "entity-1", loc)

	_, _, err = s.Remove(1)
	require.NoError(t, err)
	_, ok = s.Location(1)
	assert.False(t, ok, "removal drops the location entry")
}

func TestStoreIDsSorted(t *testing.T) {
	s := NewStore()
	for _, id := range []BezierID{9, 3, 7} {
		require.NoError(t, s.Insert(newCurve(id, segment(0, 10), "")))
	}
	assert.Equal(t, []BezierID{3, 7, 9}, s.IDs())
	assert.Equal(t, BezierID(10), s.allocID())
	assert.Equal(t, BezierID(11), s.allocID())
}
