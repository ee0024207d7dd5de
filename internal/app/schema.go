package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"block-manifests/internal/types"
)

// Schema prints the composed attribute schema of a block or component.
func (s Service) Schema(ctx context.Context, req SchemaRequest) (SchemaResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return SchemaResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("block or component name is required")
	}
	p, err := s.open(ctx)
	if err != nil {
		return SchemaResult{}, err
	}
	defer closePipeline(ctx, p)

	var schema *types.Object
	switch normalizeTarget(req.Target) {
	case TargetBlock:
		if req.Full {
			schema, err = p.resolver.BlockAttributes(ctx, name)
		} else {
			schema, err = p.resolver.BuildBlockSchema(ctx, name)
		}
	case TargetComponent:
		schema, err = p.resolver.BuildComponentSchema(ctx, name)
	default:
		return SchemaResult{}, unsupportedTarget(req.Target)
	}
	if err != nil {
		return SchemaResult{}, err
	}

	output, err := encodeValue(types.ObjectValue(schema), req.Format)
	if err != nil {
		return SchemaResult{}, err
	}
	return SchemaResult{Output: output, Keys: schema.Len()}, nil
}

func normalizeTarget(target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	switch target {
	case "", "blocks":
		return TargetBlock
	case "components":
		return TargetComponent
	default:
		return target
	}
}

func unsupportedTarget(target string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("unsupported target '" + target + "' (expected block or component)")
}
