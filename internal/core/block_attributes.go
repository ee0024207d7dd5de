package core

import (
	"context"

	"github.com/google/uuid"

	"block-manifests/internal/types"
)

// NewInstanceID returns a per-instance identifier for blockClientId and
// the data-id selector suffix.
func NewInstanceID() string {
	return uuid.NewString()
}

func stringAttribute(defaultValue string) types.Value {
	definition := types.NewObject().Set("type", types.String("string"))
	if defaultValue != "" {
		definition.Set("default", types.String(defaultValue))
	}
	return types.ObjectValue(definition)
}

// DefaultBlockAttributes is the baseline every block instance carries. The
// keys are global and never prefixed.
func DefaultBlockAttributes(settings *types.Object, block *types.Object) *types.Object {
	prefix := settings.String("blockClassPrefix")
	if prefix == "" {
		prefix = DefaultBlockClassPrefix
	}
	name := block.String("blockName")
	fullName := block.String("blockFullName")
	if fullName == "" {
		fullName = settings.String("namespace") + "/" + name
	}
	return types.NewObject().
		Set("blockName", stringAttribute(name)).
		Set("blockClientId", stringAttribute("")).
		Set("blockFullName", stringAttribute(fullName)).
		Set("blockClass", stringAttribute(prefix+"-"+name)).
		Set("blockJsClass", stringAttribute("js-"+prefix+"-"+name))
}

// BlockAttributes is the full attribute schema registered for a block:
// the baseline, then wrapper attributes when the wrapper is enabled, then
// the composed block schema. Later entries win.
func (r *AttributeResolver) BlockAttributes(ctx context.Context, name string) (*types.Object, error) {
	settings, err := r.source.Settings(ctx)
	if err != nil {
		return nil, err
	}
	block, err := r.source.Block(ctx, name)
	if err != nil {
		return nil, err
	}
	out := DefaultBlockAttributes(settings, block)

	if configEnabled(settings, ConfigUseWrapper) {
		wrapper, ok, err := r.source.Wrapper(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Merge(wrapper.Object("attributes").Clone())
		}
	}

	schema, err := r.BuildBlockSchema(ctx, name)
	if err != nil {
		return nil, err
	}
	return out.Merge(schema), nil
}

// configEnabled reads a boolean toggle from settings.config. Absent or
// non-boolean values count as enabled.
func configEnabled(settings *types.Object, key string) bool {
	value, ok := settings.Lookup("config", key)
	if !ok {
		return true
	}
	enabled, isBool := value.AsBool()
	return !isBool || enabled
}

// configFlag reads a boolean toggle that defaults to off.
func configFlag(settings *types.Object, key string) bool {
	value, _ := settings.Lookup("config", key)
	enabled, _ := value.AsBool()
	return enabled
}

func configString(settings *types.Object, key string, fallback string) string {
	value, _ := settings.Lookup("config", key)
	if text, ok := value.AsString(); ok && text != "" {
		return text
	}
	return fallback
}
