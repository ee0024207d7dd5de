package app

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"block-manifests/internal/types"
)

// encodeValue renders value as indented JSON or YAML. Object keys keep
// their manifest order in both formats.
func encodeValue(value types.Value, format string) ([]byte, error) {
	switch normalizeFormat(format) {
	case FormatJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode json output").
				WithCause(err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(value)); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode yaml output").
				WithCause(err)
		}
		if err := enc.Close(); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode yaml output").
				WithCause(err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported output format: " + format)
	}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return FormatJSON
	case "yml":
		return FormatYAML
	default:
		return format
	}
}

func yamlNode(value types.Value) *yaml.Node {
	switch value.Kind() {
	case types.KindObject:
		obj, _ := value.AsObject()
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		obj.Each(func(key string, child types.Value) bool {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				yamlNode(child),
			)
			return true
		})
		return node
	case types.KindArray:
		items, _ := value.AsArray()
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case types.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value.Text()}
	case types.KindNumber:
		n, _ := value.AsNumber()
		tag := "!!float"
		if n == math.Trunc(n) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value.Text()}
	case types.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value.Text()}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
