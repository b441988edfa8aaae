package penknot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildScene leaves a group, a retired group, a loose curve and an undone
// tail in the history.
func buildScene(t *testing.T, e *Editor) {
	t.Helper()
	a, b, c := abcChain(t, e)
	_, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)

	d := spawn(t, e, segment(100, 110))
	f := spawn(t, e, segment(110, 120))
	_, err = e.Latch(end(d), start(f))
	require.NoError(t, err)
	_, _, err = e.FormGroup([]BezierID{d, f})
	require.NoError(t, err)
	_, err = e.Delete([]BezierID{f})
	require.NoError(t, err)

	_, err = e.MoveAnchor(d, AnchorControlStart, Point{X: 101, Y: 7})
	require.NoError(t, err)
	_, err = e.Undo()
	require.NoError(t, err)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := New(Options{})
	buildScene(t, e)
	want := captureState(t, e)

	doc, err := e.Snapshot()
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)
	t.Logf("document is %d bytes", len(data))

	back, err := DecodeDocument(data)
	require.NoError(t, err)
	fresh := New(Options{})
	require.NoError(t, fresh.Restore(back))

	assert.Equal(t, want, captureState(t, fresh))
	assert.Len(t, fresh.HistoryActions(), len(e.HistoryActions()))
	assert.Equal(t, e.store.NextID(), fresh.store.NextID())

	// Both editors keep behaving identically through the restored history.
	for _, ed := range []*Editor{e, fresh} {
		_, err := ed.Redo()
		require.NoError(t, err)
		_, err = ed.Undo()
		require.NoError(t, err)
		_, err = ed.Undo()
		require.NoError(t, err)
		_, err = ed.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, captureState(t, e), captureState(t, fresh))
	assert.Equal(t, e.Groups(), fresh.Groups(), "the retired group came back in both")
}

func TestRestoreRejectsAsymmetricLatch(t *testing.T) {
	e := New(Options{})
	a := spawn(t, e, segment(0, 10))
	b := spawn(t, e, segment(10, 20))
	_, err := e.Latch(end(a), start(b))
	require.NoError(t, err)

	doc, err := e.Snapshot()
	require.NoError(t, err)
	doc.Curves[1].Latches = nil

	target := New(Options{})
	spawn(t, target, segment(50, 60))
	before := captureState(t, target)

	err = target.Restore(doc)
	assert.ErrorIs(t, err, ErrLatchAsymmetry)
	assert.Equal(t, before, captureState(t, target), "a rejected document leaves the editor untouched")
}

func TestRestoreRejectsCursorOutOfRange(t *testing.T) {
	e := New(Options{})
	abcChain(t, e)
	doc, err := e.Snapshot()
	require.NoError(t, err)

	target := New(Options{})
	spawn(t, target, segment(50, 60))
	before := captureState(t, target)

	for _, cursor := range []int{len(doc.History), -2} {
		doc.Cursor = cursor
		err = target.Restore(doc)
		assert.ErrorIs(t, err, ErrCursorOutOfRange, "cursor %d", cursor)
		assert.Equal(t, before, captureState(t, target))
	}
}

func TestRestoreRejectsBrokenGroup(t *testing.T) {
	e := New(Options{})
	a, b, c := abcChain(t, e)
	_, _, err := e.FormGroup([]BezierID{a, b, c})
	require.NoError(t, err)

	doc, err := e.Snapshot()
	require.NoError(t, err)
	doc.Groups[0].Members = []BezierID{a, c}

	err = New(Options{}).Restore(doc)
	assert.ErrorIs(t, err, ErrNotFullyConnected)
}

func TestDecodeUnknownAction(t *testing.T) {
	_, err := decodeAction(ActionRecord{Kind: "teleported", Data: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestLibrarySaveLoad(t *testing.T) {
	tests := []struct {
		name string
		opts func(t *testing.T) LibraryOptions
	}{
		{"memory", func(t *testing.T) LibraryOptions { return LibraryOptions{} }},
		{"filesystem", func(t *testing.T) LibraryOptions {
			return LibraryOptions{ColdStoragePath: t.TempDir()}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Init(tt.opts(t))
			require.NoError(t, err)

			e := lib.Open()
			require.NotEmpty(t, e.ID())
			buildScene(t, e)
			want := captureState(t, e)
			require.NoError(t, lib.Save(e))
			require.NoError(t, e.Close())

			loaded, err := lib.Load(e.ID())
			require.NoError(t, err)
			defer loaded.Close()
			assert.Equal(t, want, captureState(t, loaded))
			assert.Equal(t, []string{e.ID()}, lib.Documents())

			got, ok := lib.Editor(e.ID())
			require.True(t, ok)
			assert.Same(t, loaded, got)

			_, err = lib.Load("missing")
			assert.ErrorIs(t, err, ErrDocumentNotFound)

			require.NoError(t, lib.Delete(e.ID()))
			_, err = lib.Load(e.ID())
			assert.ErrorIs(t, err, ErrDocumentNotFound)
			assert.ErrorIs(t, lib.Delete(e.ID()), ErrDocumentNotFound)
			assert.ErrorIs(t, lib.Delete("missing"), ErrDocumentNotFound)
		})
	}
}
