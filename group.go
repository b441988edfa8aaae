package penknot

import (
	"fmt"
	"slices"

	"github.com/oklog/ulid/v2"
)

// GroupID identifies a group. Ids are ULIDs and are kept across undo when a
// retired group is re-attached.
type GroupID string

func newGroupID() GroupID {
	return GroupID(ulid.Make().String())
}

// Group is a connected chain treated as one compound shape.
type Group struct {
	ID      GroupID
	Members []BezierID
	Order   []OrientedCurve

	table SampleTable
	dirty bool
}

func (g *Group) clone() *Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	cp.Order = slices.Clone(g.Order)
	cp.table.Points = slices.Clone(g.table.Points)
	return &cp
}

// groupIndex owns the group records. Retired groups lost a member to a
// delete or unlatch; they are kept so undo can bring them back.
type groupIndex struct {
	active  map[GroupID]*Group
	retired map[GroupID]*Group
}

func newGroupIndex() *groupIndex {
	return &groupIndex{
		active:  make(map[GroupID]*Group),
		retired: make(map[GroupID]*Group),
	}
}

func (gi *groupIndex) ids(m map[GroupID]*Group) []GroupID {
	out := make([]GroupID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// FormGroup groups ids. They must be exactly one latched chain and none of
// them may already be grouped.
func (e *Editor) FormGroup(ids []BezierID) (GroupID, ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		return "", ChangeResult{}, e.reject("group", ErrEmptySelection)
	}
	members := slices.Clone(ids)
	slices.Sort(members)
	members = slices.Compact(members)

	hasLatch := false
	for _, id := range members {
		c, err := e.store.GetMut(id)
		if err != nil {
			return "", ChangeResult{}, e.reject("group", err)
		}
		if gid, ok := c.GroupID(); ok {
			return "", ChangeResult{}, e.reject("group", fmt.Errorf("%w: %s in %s", ErrAlreadyGrouped, id, gid))
		}
		if len(c.Latches) > 0 {
			hasLatch = true
		}
	}
	if !hasLatch {
		return "", ChangeResult{}, e.reject("group", fmt.Errorf("%w: no latches in selection", ErrNotFullyConnected))
	}
	exact, err := e.store.isExactChain(members)
	if err != nil {
		return "", ChangeResult{}, e.reject("group", err)
	}
	if !exact {
		return "", ChangeResult{}, e.reject("group", ErrNotFullyConnected, "count", len(members))
	}
	order, err := e.store.chainOrder(members)
	if err != nil {
		return "", ChangeResult{}, e.reject("group", err)
	}

	g := &Group{ID: newGroupID(), Members: members, Order: order, dirty: true}
	cs := newChangeSet()
	e.attachGroup(cs, g)
	e.logger.Debug("formed group", "group_id", g.ID, "count", len(members))
	return g.ID, e.result(cs), nil
}

// attachGroup tags every member and makes g active.
func (e *Editor) attachGroup(cs *changeSet, g *Group) {
	for _, id := range g.Members {
		gid := g.ID
		e.store.curves[id].Group = &gid
		cs.curve(id)
	}
	g.dirty = true
	e.groups.active[g.ID] = g
	cs.group(g.ID)
	e.emit(Event{Kind: GroupFormed, Group: g.ID})
}

// DissolveGroup removes a group and returns its freed members.
func (e *Editor) DissolveGroup(gid GroupID) ([]BezierID, ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dissolveGroup(gid)
}

func (e *Editor) dissolveGroup(gid GroupID) ([]BezierID, ChangeResult, error) {
	g, ok := e.groups.active[gid]
	if !ok {
		return nil, ChangeResult{}, e.reject("ungroup", fmt.Errorf("%w: %s", ErrGroupNotFound, gid))
	}
	cs := newChangeSet()
	e.detachGroup(cs, g)
	delete(e.groups.active, gid)
	e.logger.Debug("dissolved group", "group_id", gid, "count", len(g.Members))
	return slices.Clone(g.Members), e.result(cs), nil
}

// DissolveSelection dissolves the group covering ids. The selection must be
// one complete chain whose members all belong to the same group.
func (e *Editor) DissolveSelection(ids []BezierID) ([]BezierID, ChangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		return nil, ChangeResult{}, e.reject("ungroup", ErrEmptySelection)
	}
	members := slices.Clone(ids)
	slices.Sort(members)
	members = slices.Compact(members)

	var gid GroupID
	for i, id := range members {
		c, err := e.store.GetMut(id)
		if err != nil {
			return nil, ChangeResult{}, e.reject("ungroup", err)
		}
		g, ok := c.GroupID()
		if !ok || (i > 0 && g != gid) {
			return nil, ChangeResult{}, e.reject("ungroup", fmt.Errorf("%w: %s", ErrNotSameGroup, id))
		}
		gid = g
	}
	exact, err := e.store.isExactChain(members)
	if err != nil {
		return nil, ChangeResult{}, e.reject("ungroup", err)
	}
	if !exact {
		return nil, ChangeResult{}, e.reject("ungroup", ErrNotFullyConnected)
	}
	return e.dissolveGroup(gid)
}

// detachGroup clears the tags of the members that are still present.
func (e *Editor) detachGroup(cs *changeSet, g *Group) {
	for _, id := range g.Members {
		c, ok := e.store.curves[id]
		if !ok || c.Group == nil || *c.Group != g.ID {
			continue
		}
		c.Group = nil
		cs.curve(id)
	}
	cs.group(g.ID)
	e.emit(Event{Kind: GroupDissolved, Group: g.ID})
}

// retireGroup invalidates a group whose chain was broken by a delete or an
// unlatch. Survivors lose their tag; the record is kept for re-attachment.
func (e *Editor) retireGroup(cs *changeSet, gid GroupID) {
	g, ok := e.groups.active[gid]
	if !ok {
		return
	}
	e.detachGroup(cs, g)
	delete(e.groups.active, gid)
	e.groups.retired[gid] = g
	e.logger.Debug("retired group", "group_id", gid)
}

// tryRestoreGroups re-attaches retired groups that involve any of ids and
// whose members once again form exactly their chain.
func (e *Editor) tryRestoreGroups(cs *changeSet, ids ...BezierID) {
	for _, gid := range e.groups.ids(e.groups.retired) {
		g := e.groups.retired[gid]
		if !slices.ContainsFunc(ids, func(id BezierID) bool { return slices.Contains(g.Members, id) }) {
			continue
		}
		if !e.restorable(g) {
			continue
		}
		order, err := e.store.chainOrder(g.Members)
		if err != nil {
			continue
		}
		g.Order = order
		delete(e.groups.retired, gid)
		e.attachGroup(cs, g)
		e.logger.Debug("restored group", "group_id", gid)
	}
}

func (e *Editor) restorable(g *Group) bool {
	for _, id := range g.Members {
		c, ok := e.store.curves[id]
		if !ok || c.Group != nil {
			return false
		}
	}
	exact, err := e.store.isExactChain(g.Members)
	return err == nil && exact
}

// GroupOf returns the group a curve belongs to.
func (e *Editor) GroupOf(id BezierID) (GroupID, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, err := e.store.GetMut(id)
	if err != nil {
		return "", false, err
	}
	gid, ok := c.GroupID()
	return gid, ok, nil
}

// Group returns a copy of an active group record.
func (e *Editor) Group(gid GroupID) (Group, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.groups.active[gid]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, gid)
	}
	return *g.clone(), nil
}

// Groups returns the ids of the active groups.
func (e *Editor) Groups() []GroupID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.groups.ids(e.groups.active)
}

// GroupTable returns the chain-ordered aggregate sample table of a group,
// recomputed first if any member changed.
func (e *Editor) GroupTable(gid GroupID) (SampleTable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups.active[gid]
	if !ok {
		return SampleTable{}, fmt.Errorf("%w: %s", ErrGroupNotFound, gid)
	}
	if g.dirty || len(g.table.Points) == 0 {
		order, err := e.store.chainOrder(g.Members)
		if err != nil {
			return SampleTable{}, err
		}
		g.Order = order
		g.table = aggregateTable(e.store, order, e.sampleCount)
		g.dirty = false
	}
	return SampleTable{Points: slices.Clone(g.table.Points), Length: g.table.Length}, nil
}
