package formatter

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/goflatten/internal/models"
)

func (f *Formatter) writeYAML(w io.Writer, v models.Value) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(f.indent)

	node, err := yamlNode(v)
	if err != nil {
		return err
	}
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// yamlNode builds an order-preserving node tree for v
func yamlNode(v models.Value) (*yaml.Node, error) {
	switch v.Kind() {
	case models.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case models.KindScalar:
		return yamlScalar(v.ScalarValue())
	case models.KindSequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if v.Len() == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, e := range v.Elems() {
			child, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case models.KindMapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.Len() == 0 {
			node.Style = yaml.FlowStyle
		}
		for key, val := range v.Mapping().All() {
			child, err := yamlNode(val)
			if err != nil {
				return nil, err
			}
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			node.Content = append(node.Content, keyNode, child)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.Kind())
	}
}

func yamlScalar(s any) (*yaml.Node, error) {
	switch t := s.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}, nil
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: t.String()}, nil
		}
		if !isJSONNumber(t.String()) {
			return nil, fmt.Errorf("invalid number literal %q", t.String())
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: t.String()}, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(t); err != nil {
			return nil, fmt.Errorf("failed to encode %T: %w", t, err)
		}
		return node, nil
	}
}
