package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Watch rebuilds the index whenever a manifest under the project locations
// changes and reports each rebuild to onEvent. It blocks until ctx is done.
// A failed rebuild is reported and the watch goes on.
func (s Service) Watch(ctx context.Context, req WatchRequest, onEvent func(WatchEvent)) error {
	p, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer closePipeline(ctx, p)

	if _, err := p.cache.Load(ctx); err != nil {
		return err
	}
	roots := p.paths.ManifestRoots()
	log.Ctx(ctx).Info().Strs("roots", roots).Msg("watching manifests")

	return s.Watcher.Watch(ctx, roots, func(path string) {
		event := WatchEvent{Path: path, At: s.now()}
		p.resolver.Reset()
		index, err := p.cache.Rebuild(ctx, req.Persist)
		if err != nil {
			event.Err = err
			log.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("manifest rebuild failed")
		} else {
			for _, kind := range index.Kinds() {
				event.Manifests += index.Count(kind)
			}
		}
		if onEvent != nil {
			onEvent(event)
		}
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}
