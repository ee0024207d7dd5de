package app

import (
	"context"
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/adapters"
	"block-manifests/internal/core"
	"block-manifests/internal/types"
)

// CSS renders the responsive custom properties of one block or component
// instance. Under the aggregated strategy the single collected record is
// flushed right away, so both strategies print a complete style element.
func (s Service) CSS(ctx context.Context, req CSSRequest) (CSSResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return CSSResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("block or component name is required")
	}
	p, err := s.open(ctx)
	if err != nil {
		return CSSResult{}, err
	}
	defer closePipeline(ctx, p)

	manifest, err := targetManifest(ctx, p, req.Target, name)
	if err != nil {
		return CSSResult{}, err
	}
	attrs, err := s.readAttributes(req.AttributesPath)
	if err != nil {
		return CSSResult{}, err
	}
	uniqueID := strings.TrimSpace(req.UniqueID)
	if uniqueID == "" {
		uniqueID = core.NewInstanceID()
	}

	generator := core.NewResponsiveGenerator(p.cache, adapters.NewMemoryStyleCollector())
	strategy, err := generator.Strategy(ctx)
	if err != nil {
		return CSSResult{}, err
	}
	output, err := generator.Generate(ctx, core.StyleRequest{
		Manifest:   manifest,
		Attributes: attrs,
		UniqueID:   uniqueID,
		Selector:   strings.TrimSpace(req.Selector),
	})
	if err != nil {
		return CSSResult{}, err
	}

	var css string
	if output.Deferred {
		if css, err = generator.Aggregate(ctx); err != nil {
			return CSSResult{}, err
		}
	} else if output.CSS != "" {
		css = core.StyleTag("", output.CSS)
	}
	if req.Globals {
		settings, err := p.cache.Settings(ctx)
		if err != nil {
			return CSSResult{}, err
		}
		if globals := core.GlobalVariablesCSS(settings, core.OutputOptimized(settings)); globals != "" {
			css = core.StyleTag("", globals) + css
		}
	}
	log.Ctx(ctx).Debug().
		Str("name", name).
		Str("strategy", string(strategy)).
		Int("bytes", len(css)).
		Msg("styles rendered")
	return CSSResult{CSS: css, UniqueID: uniqueID, Strategy: string(strategy)}, nil
}

func targetManifest(ctx context.Context, p *pipeline, target string, name string) (*types.Object, error) {
	switch normalizeTarget(target) {
	case TargetBlock:
		return p.cache.Block(ctx, name)
	case TargetComponent:
		component, ok, err := p.cache.Component(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.UnknownComponentError{Name: name}
		}
		return component, nil
	default:
		return nil, unsupportedTarget(target)
	}
}

// readAttributes loads runtime attribute values from a JSON object file.
// An empty path yields no values, so every attribute falls back to its
// manifest default.
func (s Service) readAttributes(path string) (types.Attributes, error) {
	attrs := types.Attributes{}
	path = strings.TrimSpace(path)
	if path == "" {
		return attrs, nil
	}
	data, err := s.FS.ReadFile(path)
	if err != nil {
		return nil, err
	}
	document, err := s.Codec.Decode(data)
	if err != nil {
		var parseErr *types.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = path
		}
		return nil, err
	}
	document.Each(func(key string, value types.Value) bool {
		attrs[key] = value
		return true
	})
	return attrs, nil
}
