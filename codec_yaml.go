// codec_yaml.go: YAML codec
//
// Works on the yaml.v3 node tree rather than on maps so mappings keep their
// document order in both directions.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"bytes"
	"fmt"
	"math"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

type yamlCodec struct{}

func (yamlCodec) Supports(format ConfigFormat) bool { return format == FormatYAML }
func (yamlCodec) Name() string                      { return "yaml" }

func (yamlCodec) Decode(data []byte) (*Section, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, decodeError(FormatYAML, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewSection(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return NewSection(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(ErrCodeIO, "YAML document root must be a mapping").WithContext("format", FormatYAML.String())
	}
	v, err := yamlValue(root)
	if err != nil {
		return nil, decodeError(FormatYAML, err)
	}
	return v.Section(), nil
}

func yamlValue(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		sec := NewSection()
		var merged []*Section
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			if n.Content[i].ShortTag() == "!!merge" {
				if v.Kind() != KindSection {
					return Value{}, fmt.Errorf("merge key at line %d must refer to a mapping", n.Content[i].Line)
				}
				merged = append(merged, v.Section())
				continue
			}
			if v.IsValid() {
				sec.Set(n.Content[i].Value, v)
			}
		}
		// explicit keys win over merged ones
		for _, m := range merged {
			m.Each(func(key string, v Value) bool {
				if _, exists := sec.Get(key); !exists {
					sec.Set(key, v.Clone())
				}
				return true
			})
		}
		return SectionValue(sec), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return Value{}, err
			}
			if v.IsValid() {
				items = append(items, v)
			}
		}
		return Value{kind: KindList, list: items}, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return Value{}, fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case "!!int":
		if v, ok := NumberValue(n.Value); ok {
			return v, nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, err
		}
		return narrowInt(i), nil
	case "!!float":
		if v, ok := NumberValue(n.Value); ok && v.Kind() == KindBigInt {
			return v, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return DoubleValue(f), nil
	}
	return StringValue(n.Value), nil
}

func (yamlCodec) Encode(root *Section) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{yamlNode(SectionValue(root))}}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "cannot encode YAML document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "cannot encode YAML document")
	}
	return buf.Bytes(), nil
}

func yamlNode(v Value) *yaml.Node {
	switch v.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Text()}
	case KindInt, KindLong, KindBigInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.Text()}
	case KindFloat, KindDouble, KindBigDecimal:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v)}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.List() {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case KindSection:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Section().Each(func(key string, item Value) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				yamlNode(item))
			return true
		})
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text()}
}

func yamlFloat(v Value) string {
	if v.Kind() == KindBigDecimal {
		return v.Text()
	}
	f := v.Double()
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	text := v.Text()
	if nv, ok := NumberValue(text); ok && nv.Kind() != KindDouble {
		text += ".0"
	}
	return text
}
