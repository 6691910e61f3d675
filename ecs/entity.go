package ecs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
)

// EntityListener is notified after a component is put on or removed from an
// entity. Mutating a component's fields in place does not notify.
type EntityListener interface {
	OnEntityChanged(e *Entity)
}

type listenerFunc struct {
	fn func(*Entity)
}

func (l *listenerFunc) OnEntityChanged(e *Entity) {
	l.fn(e)
}

type componentSlot struct {
	value any
	kind  ComponentKind
}

// ComponentWithKind pairs a stored component with the kind that built it.
type ComponentWithKind struct {
	Component any
	Kind      ComponentKind
}

// TaggedComponent pairs a stored component with its tag.
type TaggedComponent struct {
	Tag       string
	Component any
}

// Entity is an identity plus a bag of components, one per tag.
// The id is optional and write-once; an entity without an id is new.
type Entity struct {
	id         any
	components *intmap.Map[TagKey, componentSlot]
	listeners  orderedSet[EntityListener]
}

// NewEntity creates an entity with no id and no components.
func NewEntity() *Entity {
	return &Entity{
		components: intmap.New[TagKey, componentSlot](8),
	}
}

// ID returns the entity id, or ErrUnboundIdentity if none was set.
func (e *Entity) ID() (any, error) {
	if e.id == nil {
		return nil, ErrUnboundIdentity
	}
	return e.id, nil
}

// SetID binds the entity id. The id must be a string or an integer and can
// only be set once.
func (e *Entity) SetID(id any) error {
	if !validID(id) {
		return fmt.Errorf("%w: got %T", ErrInvalidIdentity, id)
	}
	if e.id != nil {
		return fmt.Errorf("%w: %v", ErrIdentityAlreadyBound, e.id)
	}
	e.id = id
	return nil
}

// AssignUUID binds a random UUID as the entity id.
func (e *Entity) AssignUUID() (string, error) {
	id := uuid.NewString()
	if err := e.SetID(id); err != nil {
		return "", err
	}
	return id, nil
}

// IsNew reports whether no id has been bound yet.
func (e *Entity) IsNew() bool {
	return e.id == nil
}

func validID(id any) bool {
	switch id.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func (e *Entity) String() string {
	if e.id == nil {
		return "Entity(new)"
	}
	return fmt.Sprintf("Entity(%v)", e.id)
}

// lookup returns the slot stored under k's tag. found is true whenever the
// tag is occupied, even when the occupant conflicts with k.
func (e *Entity) lookup(k ComponentKind) (slot componentSlot, found bool, err error) {
	slot, found = e.components.Get(k.Key())
	if !found {
		return slot, false, nil
	}
	if slot.kind.Tag() != k.Tag() || !compatible(slot.kind, k) {
		return slot, true, fmt.Errorf("%w: tag %q holds %s, not %s", ErrTagConflict, k.Tag(), slot.kind.Type(), k.Type())
	}
	return slot, true, nil
}

// HasComponent reports whether a component of kind k is stored.
// It fails with ErrTagConflict if k's tag holds a component of another type.
func (e *Entity) HasComponent(k ComponentKind) (bool, error) {
	_, found, err := e.lookup(k)
	if err != nil {
		return false, err
	}
	return found, nil
}

// GetComponent returns the stored component of kind k. The instance is not
// copied: mutating it is visible to every reader but notifies no listener.
func (e *Entity) GetComponent(k ComponentKind) (any, error) {
	slot, found, err := e.lookup(k)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q on %s", ErrComponentNotFound, k.Tag(), e)
	}
	return slot.value, nil
}

// PutComponent stores a fresh default instance of k, replacing any component
// of the same kind, notifies listeners and returns the new instance.
func (e *Entity) PutComponent(k ComponentKind) (any, error) {
	if _, _, err := e.lookup(k); err != nil {
		return nil, err
	}

	value := k.New()
	if e.components == nil {
		e.components = intmap.New[TagKey, componentSlot](8)
	}
	e.components.Put(k.Key(), componentSlot{value: value, kind: k})
	e.notify()
	return value, nil
}

// RemoveComponent deletes the component of kind k and notifies listeners.
func (e *Entity) RemoveComponent(k ComponentKind) error {
	_, found, err := e.lookup(k)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q on %s", ErrComponentNotFound, k.Tag(), e)
	}
	e.components.Del(k.Key())
	e.notify()
	return nil
}

// ComponentCount returns the number of stored components.
func (e *Entity) ComponentCount() int {
	return e.components.Len()
}

// ListComponents returns the stored components in no particular order.
func (e *Entity) ListComponents() []any {
	out := make([]any, 0, e.components.Len())
	for _, slot := range e.components.All() {
		out = append(out, slot.value)
	}
	return out
}

// ListComponentsWithTypes returns the stored components with their kinds.
func (e *Entity) ListComponentsWithTypes() []ComponentWithKind {
	out := make([]ComponentWithKind, 0, e.components.Len())
	for _, slot := range e.components.All() {
		out = append(out, ComponentWithKind{Component: slot.value, Kind: slot.kind})
	}
	return out
}

// ListComponentsWithTags returns the stored components with their tags.
func (e *Entity) ListComponentsWithTags() []TaggedComponent {
	out := make([]TaggedComponent, 0, e.components.Len())
	for _, slot := range e.components.All() {
		out = append(out, TaggedComponent{Tag: slot.kind.Tag(), Component: slot.value})
	}
	return out
}

// AddListener registers l. Adding a registered listener is a no-op.
func (e *Entity) AddListener(l EntityListener) {
	e.listeners.add(l)
}

// RemoveListener unregisters l. Removing an unknown listener is a no-op.
func (e *Entity) RemoveListener(l EntityListener) {
	e.listeners.remove(l)
}

// OnChange registers fn as a listener and returns the handle that removes it.
func (e *Entity) OnChange(fn func(*Entity)) EntityListener {
	l := &listenerFunc{fn: fn}
	e.listeners.add(l)
	return l
}

func (e *Entity) notify() {
	e.listeners.each(func(l EntityListener) {
		l.OnEntityChanged(e)
	})
}

// Put stores a fresh T on e. See Entity.PutComponent.
func Put[T any](e *Entity, ct *ComponentType[T]) (*T, error) {
	v, err := e.PutComponent(ct)
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Get returns the T stored on e. See Entity.GetComponent.
func Get[T any](e *Entity, ct *ComponentType[T]) (*T, error) {
	v, err := e.GetComponent(ct)
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Has reports whether e stores a T. See Entity.HasComponent.
func Has[T any](e *Entity, ct *ComponentType[T]) (bool, error) {
	return e.HasComponent(ct)
}

// Remove deletes the T stored on e. See Entity.RemoveComponent.
func Remove[T any](e *Entity, ct *ComponentType[T]) error {
	return e.RemoveComponent(ct)
}
