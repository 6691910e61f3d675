package prefab

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlTemplate struct {
	Name     string       `yaml:"name"`
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	ID         any       `yaml:"id"`
	Components yaml.Node `yaml:"components"`
}

// LoadYAML decodes a template from a YAML reader. Component payloads keep
// their document order.
func LoadYAML(r io.Reader) (*Template, error) {
	var raw yamlTemplate
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	t := &Template{
		Name:     raw.Name,
		Entities: make([]EntitySpec, 0, len(raw.Entities)),
	}
	for i, re := range raw.Entities {
		components, err := yamlComponents(&re.Components)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		t.Entities = append(t.Entities, EntitySpec{ID: re.ID, Components: components})
	}
	return t, nil
}

func yamlComponents(node *yaml.Node) ([]ComponentSpec, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: components must be a mapping", node.Line)
	}

	specs := make([]ComponentSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		spec := ComponentSpec{Tag: key.Value}
		if !isNull(value) {
			spec.decode = func(target any) error {
				return value.Decode(target)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
