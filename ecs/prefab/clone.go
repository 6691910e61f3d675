package prefab

import (
	"fmt"
	"reflect"

	"github.com/plus3/ecsfamily/ecs"
)

// Clone copies src's components into a new entity. Each component is rebuilt
// through the kind registry binds to its tag and then shallow-copied from the
// source, so the clone never shares component instances with src. The clone
// has no id and is not attached to any engine.
func Clone(src *ecs.Entity, registry *ecs.ComponentRegistry) (*ecs.Entity, error) {
	dst := ecs.NewEntity()
	for _, c := range src.ListComponentsWithTypes() {
		kind, ok := registry.Lookup(c.Kind.Tag())
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, c.Kind.Tag())
		}
		if kind.Type() != c.Kind.Type() {
			return nil, fmt.Errorf("%w: tag %q holds %s, registry has %s", ecs.ErrTagConflict, kind.Tag(), c.Kind.Type(), kind.Type())
		}

		component, err := dst.PutComponent(kind)
		if err != nil {
			return nil, err
		}
		reflect.ValueOf(component).Elem().Set(reflect.ValueOf(c.Component).Elem())
	}
	return dst, nil
}
