package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CacheBuild rebuilds the index and writes it to the snapshot and the
// configured store whatever the environment's cache policy says.
func (s Service) CacheBuild(ctx context.Context, _ CacheBuildRequest) (CacheBuildResult, error) {
	p, err := s.open(ctx)
	if err != nil {
		return CacheBuildResult{}, err
	}
	defer closePipeline(ctx, p)

	index, err := p.cache.Rebuild(ctx, true)
	if err != nil {
		return CacheBuildResult{}, err
	}
	result := CacheBuildResult{
		SnapshotPath: p.cache.SnapshotPath(),
		StoreKey:     p.cache.StoreKey(),
	}
	for _, kind := range index.Kinds() {
		result.Manifests += index.Count(kind)
	}
	if data, err := s.FS.ReadFile(result.SnapshotPath); err == nil {
		result.Size = int64(len(data))
	}
	log.Ctx(ctx).Info().
		Str("snapshot", result.SnapshotPath).
		Int("manifests", result.Manifests).
		Msg("manifest cache built")
	return result, nil
}

// CacheClear removes the persisted entry and the snapshot.
func (s Service) CacheClear(ctx context.Context, _ CacheClearRequest) (CacheClearResult, error) {
	p, err := s.open(ctx)
	if err != nil {
		return CacheClearResult{}, err
	}
	defer closePipeline(ctx, p)

	if err := p.cache.Clear(ctx); err != nil {
		return CacheClearResult{}, err
	}
	return CacheClearResult{
		SnapshotPath: p.cache.SnapshotPath(),
		StoreKey:     p.cache.StoreKey(),
	}, nil
}
