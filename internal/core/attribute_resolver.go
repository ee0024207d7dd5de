package core

import (
	"context"
	"slices"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/ports"
	"block-manifests/internal/shared"
	"block-manifests/internal/types"
)

const (
	wrapperPrefix   = "wrapper"
	blockPrefix     = "block"
	prefixAttribute = "prefix"

	defaultSchemaCacheSize = 128
)

// AttributeResolver builds the attribute schema a block or component
// instance sees and resolves single attribute values against it. Schemas
// are memoized by owner until Reset.
type AttributeResolver struct {
	source  ports.ManifestSourcePort
	schemas *lru.Cache[string, *types.Object]
}

func NewAttributeResolver(source ports.ManifestSourcePort, cacheSize int) (*AttributeResolver, error) {
	if cacheSize <= 0 {
		cacheSize = defaultSchemaCacheSize
	}
	schemas, err := lru.New[string, *types.Object](cacheSize)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create schema cache").
			WithCause(err)
	}
	return &AttributeResolver{source: source, schemas: schemas}, nil
}

// Reset forgets memoized schemas. Call it after the manifest cache is
// rebuilt.
func (r *AttributeResolver) Reset() {
	r.schemas.Purge()
}

// BuildBlockSchema returns the composed schema of a block: nested
// component attributes mounted under their local names plus the block's
// own attributes unchanged.
func (r *AttributeResolver) BuildBlockSchema(ctx context.Context, name string) (*types.Object, error) {
	cacheKey := "block:" + name
	if schema, ok := r.schemas.Get(cacheKey); ok {
		return schema.Clone(), nil
	}
	block, err := r.source.Block(ctx, name)
	if err != nil {
		return nil, err
	}
	schema, err := r.BuildSchema(ctx, block)
	if err != nil {
		return nil, err
	}
	r.schemas.Add(cacheKey, schema)
	return schema.Clone(), nil
}

// BuildComponentSchema returns the schema of a component used standalone,
// rooted at its own name.
func (r *AttributeResolver) BuildComponentSchema(ctx context.Context, name string) (*types.Object, error) {
	cacheKey := "component:" + name
	if schema, ok := r.schemas.Get(cacheKey); ok {
		return schema.Clone(), nil
	}
	component, ok, err := r.source.Component(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.UnknownComponentError{Name: name}
	}
	schema, err := r.BuildSchema(ctx, component)
	if err != nil {
		return nil, err
	}
	r.schemas.Add(cacheKey, schema)
	return schema.Clone(), nil
}

// BuildSchema composes the schema of manifest without memoizing it. A
// nested component that cannot be found aborts the whole build.
func (r *AttributeResolver) BuildSchema(ctx context.Context, manifest *types.Object) (*types.Object, error) {
	var (
		root      AttributePath
		ancestors []string
	)
	if !manifest.Has("blockName") {
		root = NewAttributePath(manifest.String("componentName"))
		ancestors = []string{manifest.String("componentName")}
	}
	out := types.NewObject()
	owner := manifestName(manifest)
	if err := r.collect(ctx, manifest, root, out, ancestors); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Str("owner", owner).Int("attributes", out.Len()).Msg("attribute schema built")
	return out, nil
}

func (r *AttributeResolver) collect(ctx context.Context, manifest *types.Object, path AttributePath, out *types.Object, ancestors []string) error {
	owner := manifestName(manifest)

	var err error
	manifest.Object("components").Each(func(local string, value types.Value) bool {
		realName, _ := value.AsString()
		if realName == "" {
			err = &types.UnknownComponentError{Parent: owner, Name: value.Text()}
			return false
		}
		if slices.Contains(ancestors, realName) {
			err = errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("component " + realName + " includes itself through " + strings.Join(ancestors, " > "))
			return false
		}
		child, ok, lookupErr := r.source.Component(ctx, realName)
		if lookupErr != nil {
			err = lookupErr
			return false
		}
		if !ok {
			err = &types.UnknownComponentError{Parent: owner, Name: realName}
			return false
		}
		next := append(slices.Clip(ancestors), realName)
		err = r.collect(ctx, child, path.Append(local), out, next)
		return err == nil
	})
	if err != nil {
		return err
	}

	ownName := shared.CamelCase(manifest.String("componentName"))
	manifest.Object("attributes").Each(func(key string, definition types.Value) bool {
		mounted := mountKey(key, ownName, path)
		if out.Has(mounted) {
			log.Ctx(ctx).Warn().
				Str("attribute", mounted).
				Str("owner", owner).
				Msg("attribute key collision, last definition wins")
		}
		out.Set(mounted, definition.Clone())
		return true
	})
	return nil
}

// NestedAttributes narrows the runtime attributes of parent to what the
// component mounted under localName needs and records the new prefix.
func NestedAttributes(attrs types.Attributes, parent *types.Object, localName string) types.Attributes {
	parentPrefix := ""
	if !parent.Has("blockName") {
		parentPrefix, _ = attrs[prefixAttribute].AsString()
		if parentPrefix == "" {
			parentPrefix = shared.CamelCase(parent.String("componentName"))
		}
	}
	prefix := shared.LowerFirst(parentPrefix + shared.PascalCase(localName))

	out := types.Attributes{}
	for key, value := range attrs {
		if key == prefixAttribute {
			continue
		}
		if strings.HasPrefix(key, prefix) || strings.HasPrefix(key, wrapperPrefix) || strings.HasPrefix(key, blockPrefix) {
			out[key] = value
		}
	}
	out[prefixAttribute] = types.String(prefix)
	return out
}

// ResolveValue returns the value of key for an instance of manifest.
// Runtime attributes are addressed by the prefixed key; defaults come from
// the manifest's own declaration. found is false only when allowUndefined
// is set and the attribute has neither a runtime value nor a default.
func ResolveValue(key string, attrs types.Attributes, manifest *types.Object, allowUndefined bool) (types.Value, bool, error) {
	if value, ok := attrs[effectiveKey(key, attrs, manifest)]; ok {
		return value, true, nil
	}

	declared, _ := manifest.Lookup("attributes", key)
	definition, ok := declared.AsObject()
	if !ok {
		return types.Null(), false, &types.UnknownAttributeError{Key: key, Owner: manifestName(manifest)}
	}
	if value, ok := definition.Get("default"); ok {
		return value.Clone(), true, nil
	}
	if allowUndefined {
		return types.Null(), false, nil
	}
	return typeDefault(definition.String("type")), true, nil
}

func effectiveKey(key string, attrs types.Attributes, manifest *types.Object) string {
	prefix, _ := attrs[prefixAttribute].AsString()
	if strings.HasPrefix(key, wrapperPrefix) || manifest.Has("blockName") || prefix == "" {
		return key
	}
	return prefixedKey(key, shared.CamelCase(manifest.String("componentName")), prefix)
}

func typeDefault(attributeType string) types.Value {
	switch attributeType {
	case "boolean":
		return types.Bool(false)
	case "array":
		return types.Array()
	case "object":
		return types.ObjectValue(types.NewObject())
	default:
		return types.String("")
	}
}

func manifestName(manifest *types.Object) string {
	for _, key := range []string{"blockName", "componentName", "name"} {
		if name := manifest.String(key); name != "" {
			return name
		}
	}
	return string(types.ResourceWrapper)
}
