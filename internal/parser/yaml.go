package parser

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/goflatten/internal/errors"
	"github.com/mcncl/goflatten/internal/models"
)

// maxAliasDepth bounds alias resolution so self-referencing anchors fail
// instead of recursing forever.
const maxAliasDepth = 64

// ParseYAML decodes one YAML document from an io.Reader, keeping mapping key order
func ParseYAML(reader io.Reader) (models.Document, error) {
	decoder := yaml.NewDecoder(reader)

	var root yaml.Node
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return models.Document{}, errors.NewParsingError(fmt.Sprintf("YAML syntax error: %v", err), errors.ErrInvalidYAML)
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); err == nil {
		return models.Document{}, errors.NewParsingError("multiple YAML documents found", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		return models.Document{}, errors.NewParsingError(fmt.Sprintf("YAML syntax error after first document: %v", err), errors.ErrInvalidYAML)
	}

	value, err := convertNode(&root, 0)
	if err != nil {
		return models.Document{}, errors.NewParsingError(err.Error(), errors.ErrInvalidYAML)
	}
	return models.Document{Root: value, RootKind: value.Kind()}, nil
}

func convertNode(node *yaml.Node, aliasDepth int) (models.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return models.Null(), nil
		}
		return convertNode(node.Content[0], aliasDepth)
	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth {
			return models.Value{}, fmt.Errorf("alias %q nested too deeply at line %d", node.Value, node.Line)
		}
		return convertNode(node.Alias, aliasDepth+1)
	case yaml.SequenceNode:
		elems := make([]models.Value, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := convertNode(child, aliasDepth)
			if err != nil {
				return models.Value{}, err
			}
			elems = append(elems, v)
		}
		return models.Sequence(elems...), nil
	case yaml.MappingNode:
		m := models.NewMapping()
		if err := convertMapping(node, m, aliasDepth); err != nil {
			return models.Value{}, err
		}
		return models.Map(m), nil
	case yaml.ScalarNode:
		return convertScalar(node)
	default:
		return models.Value{}, fmt.Errorf("unsupported YAML node kind %d at line %d", node.Kind, node.Line)
	}
}

// convertMapping fills m from node. Explicit keys always win over merged
// ones, and among merged mappings the first one to supply a key wins.
func convertMapping(node *yaml.Node, m *models.Mapping, aliasDepth int) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			if err := mergeInto(valueNode, m, aliasDepth); err != nil {
				return err
			}
			continue
		}

		key, err := mappingKey(keyNode)
		if err != nil {
			return err
		}
		value, err := convertNode(valueNode, aliasDepth)
		if err != nil {
			return err
		}
		m.Set(key, value)
	}
	return nil
}

// mergeInto adds the entries of a merge value to m without overwriting keys
// that are already present.
func mergeInto(node *yaml.Node, m *models.Mapping, aliasDepth int) error {
	if node.Kind == yaml.AliasNode {
		if aliasDepth >= maxAliasDepth {
			return fmt.Errorf("alias %q nested too deeply at line %d", node.Value, node.Line)
		}
		return mergeInto(node.Alias, m, aliasDepth+1)
	}
	switch node.Kind {
	case yaml.MappingNode:
		merged := models.NewMapping()
		if err := convertMapping(node, merged, aliasDepth); err != nil {
			return err
		}
		for key, value := range merged.All() {
			if _, exists := m.Get(key); !exists {
				m.Set(key, value)
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if err := mergeInto(child, m, aliasDepth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("merge value at line %d is not a mapping", node.Line)
	}
}

func mappingKey(node *yaml.Node) (string, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("mapping key at line %d must be a scalar", node.Line)
	}
	return node.Value, nil
}

func convertScalar(node *yaml.Node) (models.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return models.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return models.Value{}, fmt.Errorf("invalid boolean %q at line %d", node.Value, node.Line)
		}
		return models.Scalar(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			// Out of int64 range: keep the literal digits.
			return models.Scalar(json.Number(strings.ReplaceAll(node.Value, "_", ""))), nil
		}
		return models.Scalar(json.Number(strconv.FormatInt(i, 10))), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return models.Value{}, fmt.Errorf("invalid float %q at line %d", node.Value, node.Line)
		}
		// NaN and infinities have no JSON number form.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return models.Scalar(node.Value), nil
		}
		return models.Scalar(json.Number(strconv.FormatFloat(f, 'g', -1, 64))), nil
	default:
		return models.Scalar(node.Value), nil
	}
}
