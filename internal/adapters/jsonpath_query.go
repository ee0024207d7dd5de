package adapters

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/ohler55/ojg/jp"

	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

// JSONPathQuery evaluates JSONPath expressions over a manifest document.
// Object results come back with sorted keys since the expression engine
// walks plain maps.
type JSONPathQuery struct{}

func NewJSONPathQuery() *JSONPathQuery {
	return &JSONPathQuery{}
}

func (q *JSONPathQuery) Query(document *types.Object, expression string) ([]types.Value, error) {
	x, err := jp.ParseString(expression)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid jsonpath '" + expression + "'").
			WithCause(err)
	}
	results := x.Get(document.Interface())
	values := make([]types.Value, len(results))
	for i, result := range results {
		values[i] = types.FromInterface(result)
	}
	return values, nil
}

var _ ports.ManifestQueryPort = (*JSONPathQuery)(nil)
