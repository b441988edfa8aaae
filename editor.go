package penknot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Options configures an Editor.
type Options struct {
	// Logger receives structured logs. Nil discards them.
	Logger *slog.Logger

	// SampleCount is the number of segments each curve sample table is cut
	// into. Zero means DefaultSampleCount.
	SampleCount int
}

// ChangeResult reports what an operation touched so callers can refresh.
type ChangeResult struct {
	Curves []BezierID
	Groups []GroupID
	Cursor int
}

// Editor is the single-writer logical core: curve store, latch graph, groups
// and history. Every exported mutation is processed completely before the
// next one begins.
type Editor struct {
	lib *Library
	id  string

	store     *Store
	groups    *groupIndex
	history   *History
	selection *Selection
	batch     *batchState
	events    []Event

	logger      *slog.Logger
	sampleCount int

	mu sync.RWMutex

	queue   []Command
	queueMu sync.Mutex
}

// New creates an empty editor.
func New(opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	n := opts.SampleCount
	if n <= 0 {
		n = DefaultSampleCount
	}
	return &Editor{
		store:       NewStore(),
		groups:      newGroupIndex(),
		history:     NewHistory(),
		selection:   newSelection(),
		logger:      logger,
		sampleCount: n,
	}
}

// ID returns the document id assigned by the Library, or "" for a standalone editor.
func (e *Editor) ID() string {
	return e.id
}

// Close releases the editor from its library.
func (e *Editor) Close() error {
	if e.lib != nil {
		e.lib.mu.Lock()
		delete(e.lib.active, e.id)
		e.lib.mu.Unlock()
	}
	e.mu.Lock()
	curvesLive.Sub(float64(e.store.Len()))
	e.mu.Unlock()
	return nil
}

// changeSet accumulates the ids touched by one operation.
type changeSet struct {
	curves map[BezierID]struct{}
	groups map[GroupID]struct{}
}

func newChangeSet() *changeSet {
	return &changeSet{
		curves: make(map[BezierID]struct{}),
		groups: make(map[GroupID]struct{}),
	}
}

func (cs *changeSet) curve(ids ...BezierID) {
	for _, id := range ids {
		cs.curves[id] = struct{}{}
	}
}

func (cs *changeSet) group(ids ...GroupID) {
	for _, id := range ids {
		cs.groups[id] = struct{}{}
	}
}

func (e *Editor) result(cs *changeSet) ChangeResult {
	res := ChangeResult{Cursor: e.history.Cursor()}
	for id := range cs.curves {
		res.Curves = append(res.Curves, id)
	}
	for id := range cs.groups {
		res.Groups = append(res.Groups, id)
	}
	slices.Sort(res.Curves)
	slices.Sort(res.Groups)
	return res
}

// touch marks a curve's sample table and its group's aggregate table stale.
func (e *Editor) touch(cs *changeSet, id BezierID) {
	c, ok := e.store.curves[id]
	if !ok {
		return
	}
	c.markDirty()
	cs.curve(id)
	if c.Group != nil {
		if g, ok := e.groups.active[*c.Group]; ok {
			g.dirty = true
			cs.group(g.ID)
		}
	}
	e.emit(Event{Kind: CurveChanged, Curve: id})
}

// reject counts and logs a refused intent and passes the error through.
func (e *Editor) reject(op string, err error, args ...any) error {
	intentsRejected.WithLabelValues(op).Inc()
	e.logger.Warn("intent rejected", append([]any{"op", op, "error", err}, args...)...)
	return err
}

// record sends the actions of one logical edit to the history, or to the
// pending batch if one is open.
func (e *Editor) record(actions ...HistoryAction) {
	if len(actions) == 0 {
		return
	}
	if e.batch != nil {
		e.batch.pending = append(e.batch.pending, actions...)
		return
	}
	e.commit(actions)
}

// commit writes actions to the history log and counts them.
func (e *Editor) commit(actions []HistoryAction) {
	e.history.Record(actions...)
	for _, a := range actions {
		historyRecorded.WithLabelValues(string(a.Kind())).Inc()
	}
}

// Spawn creates a curve with a fresh id and records it.
func (e *Editor) Spawn(positions Positions, color string) (BezierID, ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cs := newChangeSet()
	snap := CurveSnapshot{ID: e.store.allocID(), Positions: positions, Color: color}
	if err := e.spawnCurve(cs, snap); err != nil {
		return 0, ChangeResult{}, err
	}
	e.record(SpawnedCurve{Curve: snap.ID, Snapshot: snap})
	e.logger.Debug("spawned curve", "curve_id", snap.ID, "cursor", e.history.Cursor())
	return snap.ID, e.result(cs), nil
}

// spawnCurve is the single creation path shared by fresh spawns, redo of a
// spawn and undo of a delete.
func (e *Editor) spawnCurve(cs *changeSet, snap CurveSnapshot) error {
	c := newCurve(snap.ID, snap.Positions, snap.Color)
	if err := e.store.Insert(c); err != nil {
		return err
	}
	curvesLive.Inc()
	cs.curve(c.ID)
	e.emit(Event{Kind: CurveCreated, Curve: c.ID})
	return nil
}

// MoveAnchor moves one anchor of a curve. AnchorAll moves the whole chain so
// that the curve's start lands on pos.
func (e *Editor) MoveAnchor(id BezierID, anchor Anchor, pos Point) (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.store.GetMut(id)
	if err != nil {
		return ChangeResult{}, e.reject("move", err, "curve_id", id)
	}
	prev := c.Positions.Get(anchor)
	cs := newChangeSet()
	if prev == pos {
		return e.result(cs), nil
	}
	if err := e.applyMove(cs, id, anchor, pos); err != nil {
		return ChangeResult{}, err
	}
	e.record(MovedAnchor{Curve: id, Anchor: anchor, PreviousPosition: prev, NewPosition: pos})
	e.logger.Debug("moved anchor", "curve_id", id, "anchor", anchor, "x", pos.X, "y", pos.Y, "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// MoveChain drags the whole latched chain containing id.
func (e *Editor) MoveChain(id BezierID, pos Point) (ChangeResult, error) {
	return e.MoveAnchor(id, AnchorAll, pos)
}

// applyMove is the geometry path used by live moves, undo and redo. An edge
// carries its adjoint control along, and a latched partner follows so that
// the joint stays shared and the controls stay mirrored through it.
func (e *Editor) applyMove(cs *changeSet, id BezierID, anchor Anchor, pos Point) error {
	c, err := e.store.GetMut(id)
	if err != nil {
		return err
	}

	if anchor == AnchorAll {
		chain, err := e.store.Chain(id)
		if err != nil {
			return err
		}
		delta := pos.Sub(c.Positions.Start)
		for _, m := range chain {
			mc := e.store.curves[m]
			mc.Positions = mc.Positions.Translate(delta)
			e.touch(cs, m)
		}
		return nil
	}

	c.Positions = shiftAnchor(c.Positions, anchor, pos)
	e.touch(cs, id)

	edge := anchor.Edge()
	l, ok := c.Latches[edge]
	if !ok {
		return nil
	}
	if err := e.store.checkMirror(id, l); err != nil {
		return err
	}
	partner := e.store.curves[l.LatchedToID]
	if anchor.IsControl() {
		shared := c.Positions.Get(edge.Anchor())
		partner.Positions = partner.Positions.Set(l.PartnersEdge.Anchor().Adjoint(), pos.Reflect(shared))
	} else {
		partner.Positions = shiftAnchor(partner.Positions, l.PartnersEdge.Anchor(), pos)
	}
	e.touch(cs, partner.ID)
	return nil
}

// shiftAnchor moves one anchor to pos. An edge anchor takes its control
// point with it by the same offset.
func shiftAnchor(p Positions, anchor Anchor, pos Point) Positions {
	if anchor.IsControl() {
		return p.Set(anchor, pos)
	}
	delta := pos.Sub(p.Get(anchor))
	adj := anchor.Adjoint()
	p = p.Set(adj, p.Get(adj).Add(delta))
	return p.Set(anchor, pos)
}

// Latch pins a's endpoint to b's endpoint. a is the curve that moves: its
// edge lands on b's edge and its adjoint control is put opposite b's control
// through the joint. The snap moves and the latch are one logical edit.
func (e *Editor) Latch(a, b CurveEdge) (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.checkLatch(a, b); err != nil {
		return ChangeResult{}, e.reject("latch", err, "a", a, "b", b)
	}
	cs := newChangeSet()
	actions, err := e.snapToPartner(cs, a, b)
	if err != nil {
		return e.result(cs), err
	}
	if err := e.applyLatch(cs, a, b); err != nil {
		return e.result(cs), e.reject("latch", err, "a", a, "b", b)
	}
	e.record(append(actions, Latched{A: a, B: b})...)
	e.logger.Debug("latched", "a", a, "b", b, "snap_moves", len(actions), "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// snapToPartner makes a's edge coincide with b's and mirrors the controls.
// a's edge is still free, so nothing propagates.
func (e *Editor) snapToPartner(cs *changeSet, a, b CurveEdge) ([]HistoryAction, error) {
	cb := e.store.curves[b.ID]
	joint := cb.Positions.Get(b.Edge.Anchor())
	control := cb.Positions.Get(b.Edge.Anchor().Adjoint()).Reflect(joint)

	var actions []HistoryAction
	for _, target := range []struct {
		anchor Anchor
		pos    Point
	}{
		{a.Edge.Anchor(), joint},
		{a.Edge.Anchor().Adjoint(), control},
	} {
		prev := e.store.curves[a.ID].Positions.Get(target.anchor)
		if prev == target.pos {
			continue
		}
		if err := e.applyMove(cs, a.ID, target.anchor, target.pos); err != nil {
			return actions, err
		}
		actions = append(actions, MovedAnchor{Curve: a.ID, Anchor: target.anchor, PreviousPosition: prev, NewPosition: target.pos})
	}
	return actions, nil
}

func (e *Editor) applyLatch(cs *changeSet, a, b CurveEdge) error {
	if err := e.store.latch(a, b); err != nil {
		return err
	}
	e.touch(cs, a.ID)
	e.touch(cs, b.ID)
	e.revalidateGroups(cs, a.ID, b.ID)
	return nil
}

// Unlatch removes the latch between a and b. Curves inside a group cannot be
// unlatched; dissolve the group first.
func (e *Editor) Unlatch(a, b CurveEdge) (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ce := range []CurveEdge{a, b} {
		c, err := e.store.GetMut(ce.ID)
		if err != nil {
			return ChangeResult{}, e.reject("unlatch", err, "curve_id", ce.ID)
		}
		if gid, ok := c.GroupID(); ok {
			return ChangeResult{}, e.reject("unlatch", fmt.Errorf("%w: %s in %s", ErrAlreadyGrouped, ce.ID, gid))
		}
	}

	cs := newChangeSet()
	if err := e.applyUnlatch(cs, a, b); err != nil {
		return ChangeResult{}, e.reject("unlatch", err, "a", a, "b", b)
	}
	e.record(Unlatched{A: a, B: b})
	e.logger.Debug("unlatched", "a", a, "b", b, "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// applyUnlatch removes a mirrored pair.
func (e *Editor) applyUnlatch(cs *changeSet, a, b CurveEdge) error {
	if err := e.store.unlatch(a, b); err != nil {
		return err
	}
	e.touch(cs, a.ID)
	e.touch(cs, b.ID)
	e.revalidateGroups(cs, a.ID, b.ID)
	return nil
}

// revalidateGroups retires any group of ids whose members no longer form
// exactly one chain.
func (e *Editor) revalidateGroups(cs *changeSet, ids ...BezierID) {
	for _, id := range ids {
		c, ok := e.store.curves[id]
		if !ok {
			continue
		}
		gid, ok := c.GroupID()
		if !ok {
			continue
		}
		g, ok := e.groups.active[gid]
		if !ok {
			continue
		}
		if exact, _ := e.store.isExactChain(g.Members); !exact {
			e.retireGroup(cs, gid)
		}
	}
}

// Delete removes curves. It goes through the selection like an interactive
// delete: the ids become the selection, and the selection is deleted.
func (e *Editor) Delete(ids []BezierID) (ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		return ChangeResult{}, e.reject("delete", ErrEmptySelection)
	}
	e.selection.Replace(ids)
	cs := newChangeSet()
	if err := e.deleteSelected(cs, true); err != nil {
		return ChangeResult{}, e.reject("delete", err)
	}
	e.logger.Debug("deleted curves", "count", len(ids), "cursor", e.history.Cursor())
	return e.result(cs), nil
}

// deleteSelected deletes the working selection. record is false when the
// delete is a redo replay: the side effects are identical but no new history
// entry is written.
func (e *Editor) deleteSelected(cs *changeSet, record bool) error {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	actions, err := e.deleteCurves(cs, ids)
	if err != nil {
		return err
	}
	e.selection.Clear()
	if record {
		e.record(actions...)
	}
	return nil
}

// deleteCurves is the removal path. Every latch touching a deleted curve is
// severed exactly once per pair, and those unlatches come before the delete
// records so that undoing the delete restores bodies first and relationships
// afterwards.
func (e *Editor) deleteCurves(cs *changeSet, ids []BezierID) ([]HistoryAction, error) {
	for _, id := range ids {
		if !e.store.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
		}
	}

	deleted := make([]HistoryAction, 0, len(ids))
	var pairs []LatchPair
	for _, id := range ids {
		c := e.store.curves[id]
		deleted = append(deleted, DeletedCurve{Curve: id, Snapshot: c.snapshot()})
		for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
			l, ok := c.Latches[edge]
			if !ok {
				continue
			}
			p := LatchPair{A: CurveEdge{ID: id, Edge: edge}, B: CurveEdge{ID: l.LatchedToID, Edge: l.PartnersEdge}}
			if !containsPair(pairs, p) {
				pairs = append(pairs, p)
			}
		}
	}

	actions := make([]HistoryAction, 0, len(pairs)+len(deleted))
	for _, p := range pairs {
		if err := e.applyUnlatch(cs, p.A, p.B); err != nil {
			return nil, err
		}
		actions = append(actions, Unlatched{A: p.A, B: p.B})
	}

	for _, id := range ids {
		if gid, ok := e.store.curves[id].GroupID(); ok {
			e.retireGroup(cs, gid)
		}
	}
	for _, id := range ids {
		if _, _, err := e.store.Remove(id); err != nil {
			return nil, err
		}
		curvesLive.Dec()
		e.selection.Remove(id)
		cs.curve(id)
		e.emit(Event{Kind: CurveDestroyed, Curve: id})
	}
	return append(actions, deleted...), nil
}

// Curve returns a copy of a curve record.
func (e *Editor) Curve(id BezierID) (Curve, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Get(id)
}

// Curves returns every curve id in ascending order.
func (e *Editor) Curves() []BezierID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.IDs()
}

// CurveTable returns the curve's sample table, recomputing it if stale.
func (e *Editor) CurveTable(id BezierID) (SampleTable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.store.GetMut(id)
	if err != nil {
		return SampleTable{}, err
	}
	t := c.refreshTable(e.sampleCount)
	return SampleTable{Points: slices.Clone(t.Points), Length: t.Length}, nil
}

// PartnerOf returns the endpoint latched to (id, edge), if any.
func (e *Editor) PartnerOf(id BezierID, edge AnchorEdge) (CurveEdge, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.PartnerOf(id, edge)
}

// ConnectedComponent returns the curves reachable from seed, seed excluded.
func (e *Editor) ConnectedComponent(seed BezierID) ([]BezierID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ConnectedComponent(seed)
}

// Chain returns the whole chain containing seed.
func (e *Editor) Chain(seed BezierID) ([]BezierID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Chain(seed)
}

// CheckLatches verifies the latch mirror invariant across the editor.
func (e *Editor) CheckLatches() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.CheckLatches()
}

// HistoryCursor returns the index of the last applied action.
func (e *Editor) HistoryCursor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Cursor()
}

// HistoryActions returns a copy of the action log.
func (e *Editor) HistoryActions() []HistoryAction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Actions()
}

// isBoundary reports whether err is one of the history end markers.
func isBoundary(err error) bool {
	return errors.Is(err, ErrHistoryAtBottom) || errors.Is(err, ErrHistoryAtTop)
}
