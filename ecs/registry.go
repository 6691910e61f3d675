package ecs

import (
	"fmt"
	"slices"
	"strings"
)

// ComponentRegistry maps tags to component kinds.
// Each registry is independent, so several engines may use different
// registries without interference. Tag collisions between unrelated types are
// rejected here, at registration time.
type ComponentRegistry struct {
	kinds map[string]ComponentKind
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		kinds: make(map[string]ComponentKind),
	}
}

// RegisterComponent defines the ComponentType for T and registers it with r.
func RegisterComponent[T any](r *ComponentRegistry, opts ...ComponentOption) (*ComponentType[T], error) {
	ct := DefineComponent[T](opts...)
	if err := r.Register(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// Register adds kinds to the registry. Registering a kind whose tag is already
// bound to a different type fails with ErrTagConflict and registers nothing.
// Registering a compatible kind again is a no-op.
func (r *ComponentRegistry) Register(kinds ...ComponentKind) error {
	pending := make(map[string]ComponentKind, len(kinds))
	for _, k := range kinds {
		bound, ok := r.kinds[k.Tag()]
		if !ok {
			bound, ok = pending[k.Tag()]
		}
		if ok && !compatible(bound, k) {
			return fmt.Errorf("register %s as %q: %w (bound to %s)", k.Type(), k.Tag(), ErrTagConflict, bound.Type())
		}
		if !ok {
			pending[k.Tag()] = k
		}
	}

	for tag, k := range pending {
		r.kinds[tag] = k
	}
	return nil
}

// Lookup returns the kind registered under tag.
func (r *ComponentRegistry) Lookup(tag string) (ComponentKind, bool) {
	k, ok := r.kinds[tag]
	return k, ok
}

// Kinds returns every registered kind sorted by tag.
func (r *ComponentRegistry) Kinds() []ComponentKind {
	kinds := make([]ComponentKind, 0, len(r.kinds))
	for _, k := range r.kinds {
		kinds = append(kinds, k)
	}
	slices.SortFunc(kinds, func(a, b ComponentKind) int {
		return strings.Compare(a.Tag(), b.Tag())
	})
	return kinds
}

// Len returns the number of registered kinds.
func (r *ComponentRegistry) Len() int {
	return len(r.kinds)
}
