// Package prefab builds entities from declarative templates. A template lists
// entities, each with an optional id and a set of component payloads keyed by
// component tag. Payloads are decoded over freshly constructed default
// component instances resolved through an ecs.ComponentRegistry.
//
// Templates can be written in YAML:
//
//	name: squad
//	entities:
//	  - id: auto
//	    components:
//	      Position: {x: 1, y: 2}
//	      Health: {current: 50}
//
// or TOML:
//
//	name = "squad"
//
//	[[entities]]
//	id = "auto"
//	[entities.components.Position]
//	x = 1
//	y = 2
package prefab

import (
	"errors"
	"fmt"

	"github.com/plus3/ecsfamily/ecs"
)

// ErrUnknownComponent is returned when a template or a cloned entity refers
// to a tag the registry does not know.
var ErrUnknownComponent = errors.New("prefab: unknown component")

// AutoID asks for a random UUID to be bound as the entity id.
const AutoID = "auto"

// Template is a decoded list of entity specs.
type Template struct {
	Name     string
	Entities []EntitySpec
}

// EntitySpec describes one entity. A nil ID leaves the entity new.
type EntitySpec struct {
	ID         any
	Components []ComponentSpec
}

// ComponentSpec is one component payload. decode overlays the payload on a
// component instance; a nil decode keeps the defaults.
type ComponentSpec struct {
	Tag    string
	decode func(target any) error
}

// Build constructs one entity per spec without attaching any of them.
func (t *Template) Build(registry *ecs.ComponentRegistry) ([]*ecs.Entity, error) {
	entities := make([]*ecs.Entity, 0, len(t.Entities))
	for i, spec := range t.Entities {
		e, err := spec.build(registry)
		if err != nil {
			return nil, fmt.Errorf("template %q entity %d: %w", t.Name, i, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Spawn builds every entity of the template and, only if all of them were
// built, adds them to engine in template order.
func (t *Template) Spawn(engine *ecs.Engine, registry *ecs.ComponentRegistry) ([]*ecs.Entity, error) {
	entities, err := t.Build(registry)
	if err != nil {
		return nil, err
	}
	engine.AddEntities(entities...)
	return entities, nil
}

func (s *EntitySpec) build(registry *ecs.ComponentRegistry) (*ecs.Entity, error) {
	e := ecs.NewEntity()

	switch id := s.ID.(type) {
	case nil:
	case string:
		if id == AutoID {
			if _, err := e.AssignUUID(); err != nil {
				return nil, err
			}
			break
		}
		if err := e.SetID(id); err != nil {
			return nil, err
		}
	default:
		if err := e.SetID(id); err != nil {
			return nil, err
		}
	}

	for _, c := range s.Components {
		kind, ok := registry.Lookup(c.Tag)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, c.Tag)
		}
		component, err := e.PutComponent(kind)
		if err != nil {
			return nil, err
		}
		if c.decode == nil {
			continue
		}
		if err := c.decode(component); err != nil {
			return nil, fmt.Errorf("decode %q: %w", c.Tag, err)
		}
	}
	return e, nil
}
