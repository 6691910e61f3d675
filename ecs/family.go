package ecs

// Family is a live view of the entities of an engine that carry every
// included component kind and none of the excluded ones.
//
// Both variants return, on every read, exactly the engine's current entities
// matching the criterion, in engine insertion order for the non-cached variant
// and in membership order for the cached one. They differ only in cost.
type Family interface {
	// Entities returns a snapshot of the matching entities. It fails with
	// ErrTagConflict if an entity stores a component whose tag collides with a
	// criterion kind of a different type.
	Entities() ([]*Entity, error)
	// IncludesEntity applies the criterion to e, attached or not.
	IncludesEntity(e *Entity) (bool, error)
	Engine() *Engine
	Cached() bool
	// Close releases the listeners a cached family holds on its engine and
	// entities. Reads after Close remain correct but are no longer cached.
	Close()
}

type criteria struct {
	include []ComponentKind
	exclude []ComponentKind
}

func (c *criteria) IncludesEntity(e *Entity) (bool, error) {
	for _, k := range c.include {
		ok, err := e.HasComponent(k)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, k := range c.exclude {
		ok, err := e.HasComponent(k)
		if err != nil || ok {
			return false, err
		}
	}
	return true, nil
}

func (c *criteria) filter(entities []*Entity) ([]*Entity, error) {
	out := make([]*Entity, 0, len(entities))
	for _, e := range entities {
		ok, err := c.IncludesEntity(e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// nonCachedFamily filters the engine's entities on every read.
type nonCachedFamily struct {
	criteria
	engine *Engine
}

func (f *nonCachedFamily) Entities() ([]*Entity, error) {
	return f.filter(f.engine.Entities())
}

func (f *nonCachedFamily) Engine() *Engine { return f.engine }
func (f *nonCachedFamily) Cached() bool    { return false }
func (f *nonCachedFamily) Close()          {}

// cachedFamily keeps a materialized member list maintained from engine and
// entity notifications.
//
// Membership is eventually consistent within a tick and lazily resolved on the
// next read: an entity added to the engine, or an attached entity whose
// components change, is appended without evaluating the criterion and the
// list is marked for refresh. The next read drops every member that no longer
// matches. Engine removals are applied immediately.
//
// The family listens to every entity attached to its engine, members or not,
// so an entity dropped by a refresh is appended again when its components
// change.
type cachedFamily struct {
	criteria
	engine       *Engine
	members      orderedSet[*Entity]
	needsRefresh bool
	closed       bool
}

func newCachedFamily(engine *Engine, c criteria) (*cachedFamily, error) {
	f := &cachedFamily{
		criteria: c,
		engine:   engine,
	}

	all := engine.Entities()
	matching, err := f.filter(all)
	if err != nil {
		return nil, err
	}
	for _, e := range matching {
		f.members.add(e)
	}

	engine.AddEntityListener(f)
	for _, e := range all {
		e.AddListener(f)
	}
	return f, nil
}

func (f *cachedFamily) Entities() ([]*Entity, error) {
	if f.closed {
		return f.filter(f.engine.Entities())
	}

	if f.needsRefresh {
		members := f.members.values()
		keep := make([]bool, len(members))
		for i, e := range members {
			ok, err := f.IncludesEntity(e)
			if err != nil {
				return nil, err
			}
			keep[i] = ok
		}
		for i, e := range members {
			if !keep[i] {
				f.members.remove(e)
			}
		}
		f.needsRefresh = false
	}

	return f.members.values(), nil
}

func (f *cachedFamily) OnEntityAdded(e *Entity) {
	f.reconcile(e)
}

func (f *cachedFamily) OnEntityRemoved(e *Entity) {
	f.reconcile(e)
}

func (f *cachedFamily) OnEntityChanged(e *Entity) {
	f.reconcile(e)
}

// reconcile syncs membership and the change listener of e with the engine's
// current state. Notifications may be stale: a listener registered before this
// family can remove or re-add e while the outer notification is still walking
// the listeners, so the notification kind is not trusted.
func (f *cachedFamily) reconcile(e *Entity) {
	if !f.engine.HasEntity(e) {
		f.members.remove(e)
		e.RemoveListener(f)
		return
	}
	f.members.add(e)
	f.needsRefresh = true
	e.AddListener(f)
}

func (f *cachedFamily) Engine() *Engine { return f.engine }
func (f *cachedFamily) Cached() bool    { return true }

func (f *cachedFamily) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.engine.RemoveEntityListener(f)
	for _, e := range f.engine.Entities() {
		e.RemoveListener(f)
	}
	f.members.clear()
}
