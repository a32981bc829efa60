package manifest

import (
	"fmt"
	"io"

	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// EncodeParamsYAML writes the parameter list as a YAML sequence of mappings,
// keeping each assignment's key order.
func EncodeParamsYAML(w io.Writer, params []sweep.Assignment) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, a := range params {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for name, v := range a.All() {
			val, err := yamlScalar(v)
			if err != nil {
				return fmt.Errorf("parameter %s: %w", name, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, val)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func yamlScalar(v cty.Value) (*yaml.Node, error) {
	tag := ""
	switch v.Type() {
	case cty.Number:
		tag = "!!float"
		if v.AsBigFloat().IsInt() {
			tag = "!!int"
		}
	case cty.String:
		tag = "!!str"
	case cty.Bool:
		tag = "!!bool"
	default:
		return nil, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: sweep.FormatValue(v)}, nil
}
