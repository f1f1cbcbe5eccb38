package document

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// DecodeYAML parses a single YAML document into a Value. Mapping order is
// preserved. Timestamps and binary scalars are kept as strings.
func DecodeYAML(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Value{}, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}
	if root.Kind == 0 {
		// Empty input.
		return ObjectValue(), nil
	}

	v, err := fromYAMLNode(&root)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return ObjectValue(), nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: n.Content[i].Value, Value: child})
		}
		return ObjectValue(members...), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := fromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, child)
		}
		return ArrayValue(items...), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	default:
		return Value{}, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return NullValue(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range; keep the digits as written.
			return StringValue(n.Value), nil
		}
		return NumberLiteral(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		if v, ok := FloatValue(f); ok {
			return v, nil
		}
		return StringValue(n.Value), nil
	default:
		return StringValue(n.Value), nil
	}
}

// EncodeYAML renders v as a YAML document. Mapping order is kept and
// strings that would read back as another type are quoted.
func EncodeYAML(v Value) ([]byte, error) {
	out, err := yaml.Marshal(toYAMLNode(v))
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return out, nil
}

func toYAMLNode(v Value) *yaml.Node {
	switch v.Kind() {
	case Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				toYAMLNode(m.Value),
			)
		}
		return n
	case Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, toYAMLNode(item))
		}
		return n
	case Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Text()}
	case Number:
		tag := "!!float"
		if _, err := strconv.ParseInt(v.Text(), 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Text()}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
	}
}
