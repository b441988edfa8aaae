package penknot

import (
	"encoding/json"
	"fmt"
	"slices"
)

// DocumentVersion is the current document format version.
const DocumentVersion = 1

// Document is a full snapshot of an editor: curves with their latch
// entries, groups, and the history log with its cursor.
type Document struct {
	Version       int            `json:"version"`
	NextID        BezierID       `json:"next_id"`
	Curves        []CurveRecord  `json:"curves"`
	Groups        []GroupRecord  `json:"groups,omitempty"`
	RetiredGroups []GroupRecord  `json:"retired_groups,omitempty"`
	History       []ActionRecord `json:"history,omitempty"`
	Cursor        int            `json:"cursor"`
}

// CurveRecord is a curve body plus its directed latch entries. Both halves
// of every latch are stored so that a damaged document can be detected.
type CurveRecord struct {
	CurveSnapshot
	Latches []LatchData `json:"latches,omitempty"`
}

// GroupRecord is a group id and its members.
type GroupRecord struct {
	ID      GroupID    `json:"id"`
	Members []BezierID `json:"members"`
}

// ActionRecord is a kind-tagged history action.
type ActionRecord struct {
	Kind ActionKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeAction(a HistoryAction) (ActionRecord, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return ActionRecord{}, err
	}
	return ActionRecord{Kind: a.Kind(), Data: data}, nil
}

func decodeAction(r ActionRecord) (HistoryAction, error) {
	var (
		a   HistoryAction
		err error
	)
	switch r.Kind {
	case KindMovedAnchor:
		var v MovedAnchor
		err = json.Unmarshal(r.Data, &v)
		a = v
	case KindSpawnedCurve:
		var v SpawnedCurve
		err = json.Unmarshal(r.Data, &v)
		a = v
	case KindDeletedCurve:
		var v DeletedCurve
		err = json.Unmarshal(r.Data, &v)
		a = v
	case KindLatched:
		var v Latched
		err = json.Unmarshal(r.Data, &v)
		a = v
	case KindUnlatched:
		var v Unlatched
		err = json.Unmarshal(r.Data, &v)
		a = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, r.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Kind, err)
	}
	return a, nil
}

// Snapshot captures the editor state. It fails while a batch is open.
func (e *Editor) Snapshot() (*Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.batch != nil {
		return nil, ErrBatchPending
	}
	doc := &Document{
		Version: DocumentVersion,
		NextID:  e.store.NextID(),
		Cursor:  e.history.Cursor(),
	}
	for _, id := range e.store.IDs() {
		c := e.store.curves[id]
		rec := CurveRecord{CurveSnapshot: c.snapshot()}
		for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
			if l, ok := c.Latches[edge]; ok {
				rec.Latches = append(rec.Latches, l)
			}
		}
		doc.Curves = append(doc.Curves, rec)
	}
	for _, gid := range e.groups.ids(e.groups.active) {
		g := e.groups.active[gid]
		doc.Groups = append(doc.Groups, GroupRecord{ID: gid, Members: slices.Clone(g.Members)})
	}
	for _, gid := range e.groups.ids(e.groups.retired) {
		g := e.groups.retired[gid]
		doc.RetiredGroups = append(doc.RetiredGroups, GroupRecord{ID: gid, Members: slices.Clone(g.Members)})
	}
	for _, a := range e.history.actions {
		r, err := encodeAction(a)
		if err != nil {
			return nil, err
		}
		doc.History = append(doc.History, r)
	}
	return doc, nil
}

// Restore replaces the editor state with doc. The document is validated in
// full first; on any error the editor is left unchanged. Asymmetric latches
// are reported as ErrLatchAsymmetry and never repaired.
func (e *Editor) Restore(doc *Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.batch != nil {
		return ErrBatchPending
	}
	store, groups, history, err := buildState(doc)
	if err != nil {
		e.logger.Warn("document rejected", "error", err)
		return err
	}

	for _, id := range e.store.IDs() {
		e.emit(Event{Kind: CurveDestroyed, Curve: id})
	}
	curvesLive.Sub(float64(e.store.Len()))
	curvesLive.Add(float64(store.Len()))

	e.store = store
	e.groups = groups
	e.history = history
	e.selection.Clear()
	for _, id := range store.IDs() {
		e.emit(Event{Kind: CurveCreated, Curve: id})
	}
	for _, gid := range groups.ids(groups.active) {
		e.emit(Event{Kind: GroupFormed, Group: gid})
	}
	e.logger.Info("document restored", "curves", store.Len(), "groups", len(groups.active), "cursor", history.Cursor())
	return nil
}

func buildState(doc *Document) (*Store, *groupIndex, *History, error) {
	if doc == nil {
		return nil, nil, nil, fmt.Errorf("%w: nil document", ErrDocumentNotFound)
	}
	if doc.Version != DocumentVersion {
		return nil, nil, nil, fmt.Errorf("unsupported document version %d", doc.Version)
	}

	store := NewStore()
	for _, rec := range doc.Curves {
		c := newCurve(rec.ID, rec.Positions, rec.Color)
		if rec.Group != nil {
			g := *rec.Group
			c.Group = &g
		}
		for _, l := range rec.Latches {
			if _, dup := c.Latches[l.SelfEdge]; dup {
				return nil, nil, nil, fmt.Errorf("%w: %s has two entries on %s", ErrLatchAsymmetry, rec.ID, l.SelfEdge)
			}
			c.Latches[l.SelfEdge] = l
		}
		if err := store.Insert(c); err != nil {
			return nil, nil, nil, err
		}
	}
	if doc.NextID > store.nextID {
		store.nextID = doc.NextID
	}
	if err := store.CheckLatches(); err != nil {
		return nil, nil, nil, err
	}

	groups := newGroupIndex()
	for _, rec := range doc.Groups {
		if len(rec.Members) == 0 {
			return nil, nil, nil, fmt.Errorf("%w: group %s has no members", ErrNotFullyConnected, rec.ID)
		}
		for _, id := range rec.Members {
			c, err := store.GetMut(id)
			if err != nil {
				return nil, nil, nil, err
			}
			if gid, ok := c.GroupID(); !ok || gid != rec.ID {
				return nil, nil, nil, fmt.Errorf("%w: %s is not tagged with %s", ErrNotSameGroup, id, rec.ID)
			}
		}
		order, err := store.chainOrder(rec.Members)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("group %s: %w", rec.ID, err)
		}
		if exact, _ := store.isExactChain(rec.Members); !exact {
			return nil, nil, nil, fmt.Errorf("group %s: %w", rec.ID, ErrNotFullyConnected)
		}
		groups.active[rec.ID] = &Group{ID: rec.ID, Members: slices.Clone(rec.Members), Order: order, dirty: true}
	}
	for _, id := range store.IDs() {
		c := store.curves[id]
		if gid, ok := c.GroupID(); ok {
			if _, ok := groups.active[gid]; !ok {
				return nil, nil, nil, fmt.Errorf("%w: %s tagged with %s", ErrGroupNotFound, id, gid)
			}
		}
	}
	for _, rec := range doc.RetiredGroups {
		groups.retired[rec.ID] = &Group{ID: rec.ID, Members: slices.Clone(rec.Members), dirty: true}
	}

	actions := make([]HistoryAction, 0, len(doc.History))
	for _, r := range doc.History {
		a, err := decodeAction(r)
		if err != nil {
			return nil, nil, nil, err
		}
		actions = append(actions, a)
	}
	history := NewHistory()
	if err := history.restore(actions, doc.Cursor); err != nil {
		return nil, nil, nil, err
	}
	return store, groups, history, nil
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// DecodeDocument parses a document produced by Encode.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
