package adapters

import (
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/xeipuuv/gojsonschema"

	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

var attributesShape = map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type":     "object",
		"required": []any{"type"},
		"properties": map[string]any{
			"type": map[string]any{"type": "string"},
		},
	},
}

var componentsShape = map[string]any{
	"type":                 "object",
	"additionalProperties": map[string]any{"type": "string"},
}

var responsiveShape = map[string]any{
	"type":                 "object",
	"additionalProperties": map[string]any{"type": "object"},
}

func manifestShape(required ...string) map[string]any {
	req := make([]any, 0, len(required))
	for _, key := range required {
		req = append(req, key)
	}
	return map[string]any{
		"type":     "object",
		"required": req,
		"properties": map[string]any{
			"attributes":           attributesShape,
			"components":           componentsShape,
			"variables":            map[string]any{"type": "object"},
			"variablesCustom":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"responsiveAttributes": responsiveShape,
		},
	}
}

var defaultManifestShapes = map[types.ResourceKind]map[string]any{
	types.ResourceSettings: {
		"type":     "object",
		"required": []any{"namespace"},
		"properties": map[string]any{
			"namespace":        map[string]any{"type": "string", "minLength": 1},
			"blockClassPrefix": map[string]any{"type": "string"},
			"config":           map[string]any{"type": "object"},
			"globalVariables": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"breakpoints": map[string]any{
						"type":                 "object",
						"additionalProperties": map[string]any{"type": "integer", "minimum": 0},
					},
				},
			},
		},
	},
	types.ResourceWrapper:    manifestShape(),
	types.ResourceBlocks:     manifestShape("blockName"),
	types.ResourceComponents: manifestShape("componentName"),
	types.ResourceVariations: manifestShape("name", "parentName"),
}

// ManifestSchemaValidator checks decoded manifests against a JSON schema
// per kind. Kinds without a schema pass.
type ManifestSchemaValidator struct {
	schemas map[types.ResourceKind]*gojsonschema.Schema
}

func NewManifestSchemaValidator() (*ManifestSchemaValidator, error) {
	validator := &ManifestSchemaValidator{schemas: map[types.ResourceKind]*gojsonschema.Schema{}}
	for kind, shape := range defaultManifestShapes {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(shape))
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to compile manifest schema for " + string(kind)).
				WithCause(err)
		}
		validator.schemas[kind] = schema
	}
	return validator, nil
}

func (v *ManifestSchemaValidator) Validate(kind types.ResourceKind, source string, manifest *types.Object) error {
	schema, ok := v.schemas[kind]
	if !ok {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(manifest.Interface()))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to validate " + string(kind) + " manifest " + source).
			WithCause(err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.Field()+": "+desc.Description())
	}
	sort.Strings(violations)
	return &types.ManifestShapeError{Kind: kind, Source: source, Violations: violations}
}

var _ ports.ManifestValidatorPort = (*ManifestSchemaValidator)(nil)
