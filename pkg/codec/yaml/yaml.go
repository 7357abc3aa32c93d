// Package yaml is the YAML pkg/codec collaborator, built on
// gopkg.in/yaml.v3 (a direct dependency of the teacher repo).
package yaml

import (
	"gopkg.in/yaml.v3"

	"github.com/thehowl/semdiff/internal/value"
)

// Decode parses data as YAML into a value.Value.
func Decode(data []byte) (value.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return value.Value{}, err
	}
	if len(node.Content) == 0 {
		return value.Null(), nil
	}
	return fromNode(node.Content[0])
}

// fromNode walks a yaml.Node tree directly rather than decoding into
// interface{}, so scalar tags (!!int, !!float, !!str) decide the Value
// kind instead of yaml.v3's own interface{} unmarshaling heuristics,
// and every numeric scalar keeps its exact source lexeme.
func fromNode(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(n), nil
	case yaml.SequenceNode:
		els := make([]value.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return value.Value{}, err
			}
			els[i] = v
		}
		return value.Array(els), nil
	case yaml.MappingNode:
		m := make(map[string]value.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			vNode := n.Content[i+1]
			v, err := fromNode(vNode)
			if err != nil {
				return value.Value{}, err
			}
			m[k.Value] = v
		}
		return value.Map(m), nil
	default:
		return value.Null(), nil
	}
}

func scalarFromNode(n *yaml.Node) value.Value {
	switch n.Tag {
	case "!!null":
		return value.Null()
	case "!!bool":
		return value.Bool(n.Value == "true")
	case "!!int", "!!float":
		return value.Numeric(n.Value)
	default:
		return value.String(n.Value)
	}
}

// Encode renders v as YAML.
func Encode(v value.Value) ([]byte, error) {
	return yaml.Marshal(value.ToAny(v))
}
