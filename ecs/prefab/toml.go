package prefab

import (
	"io"
	"slices"

	"github.com/BurntSushi/toml"
)

type tomlTemplate struct {
	Name     string       `toml:"name"`
	Entities []tomlEntity `toml:"entities"`
}

type tomlEntity struct {
	ID         any                       `toml:"id"`
	Components map[string]toml.Primitive `toml:"components"`
}

// LoadTOML decodes a template from a TOML reader. TOML tables are unordered,
// so component payloads are applied in tag order.
func LoadTOML(r io.Reader) (*Template, error) {
	var raw tomlTemplate
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Name:     raw.Name,
		Entities: make([]EntitySpec, 0, len(raw.Entities)),
	}
	for _, re := range raw.Entities {
		tags := make([]string, 0, len(re.Components))
		for tag := range re.Components {
			tags = append(tags, tag)
		}
		slices.Sort(tags)

		specs := make([]ComponentSpec, 0, len(tags))
		for _, tag := range tags {
			prim := re.Components[tag]
			specs = append(specs, ComponentSpec{
				Tag: tag,
				decode: func(target any) error {
					return md.PrimitiveDecode(prim, target)
				},
			})
		}
		t.Entities = append(t.Entities, EntitySpec{ID: re.ID, Components: specs})
	}
	return t, nil
}
