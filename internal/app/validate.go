package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Validate rebuilds the index from the manifest files without touching the
// persisted tiers and reports how many manifests of each kind were merged.
func (s Service) Validate(ctx context.Context, _ ValidateRequest) (ValidateResult, error) {
	p, err := s.open(ctx)
	if err != nil {
		return ValidateResult{}, err
	}
	defer closePipeline(ctx, p)

	index, err := p.cache.Rebuild(ctx, false)
	if err != nil {
		return ValidateResult{}, err
	}
	namespace, err := p.cache.Namespace(ctx)
	if err != nil {
		return ValidateResult{}, err
	}
	result := ValidateResult{Namespace: namespace}
	for _, kind := range index.Kinds() {
		result.Counts = append(result.Counts, KindCount{Kind: kind, Count: index.Count(kind)})
	}
	return result, nil
}

func closePipeline(ctx context.Context, p *pipeline) {
	if err := p.Close(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to close manifest store")
	}
}
