package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/adapters"
	"block-manifests/internal/core"
	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

const redisKeyPrefix = "block-manifests:"

type Service struct {
	Config  Config
	FS      ports.FileSystemPort
	Codec   ports.ManifestCodecPort
	Query   ports.ManifestQueryPort
	Watcher ports.ManifestWatcherPort
	Clock   func() time.Time
}

func NewService(cfg Config) Service {
	return Service{
		Config:  cfg,
		FS:      adapters.NewOSFileSystem(),
		Codec:   adapters.NewJSONManifestCodec(),
		Query:   adapters.NewJSONPathQuery(),
		Watcher: adapters.NewManifestWatcher(),
		Clock:   time.Now,
	}
}

// pipeline is the set of components one operation works with.
type pipeline struct {
	paths    *core.PathResolver
	cache    *core.ManifestCache
	resolver *core.AttributeResolver
	close    func() error
}

func (p *pipeline) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

func (s Service) open(ctx context.Context) (*pipeline, error) {
	root := strings.TrimSpace(s.Config.Root)
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project root is required")
	}
	paths := core.NewPathResolver(root, s.pathOverrides())

	store, closeStore, err := s.openStore(ctx, paths)
	if err != nil {
		return nil, err
	}
	opts := core.ManifestCacheOptions{Name: s.Config.CacheName, TTL: s.Config.CacheTTL}
	if s.Config.StrictSchema {
		validator, err := adapters.NewManifestSchemaValidator()
		if err != nil {
			_ = closeStore()
			return nil, err
		}
		opts.Validator = validator
	}
	policy := adapters.NewEnvironmentPolicy(s.Config.Environment, s.Config.DevelopMode, s.Config.NoCache)
	cache := core.NewManifestCache(paths, s.FS, s.Codec, store, policy, opts)

	resolver, err := core.NewAttributeResolver(cache, 0)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	return &pipeline{paths: paths, cache: cache, resolver: resolver, close: closeStore}, nil
}

func (s Service) pathOverrides() map[types.Location]string {
	if len(s.Config.Paths) == 0 {
		return nil
	}
	out := make(map[types.Location]string, len(s.Config.Paths))
	for name, path := range s.Config.Paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		out[types.Location(name)] = path
	}
	return out
}

func (s Service) openStore(ctx context.Context, paths *core.PathResolver) (ports.BlobStorePort, func() error, error) {
	noop := func() error { return nil }
	cfg := s.Config.Store
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = StoreMemory
	}
	switch backend {
	case StoreNone:
		return nil, noop, nil
	case StoreMemory:
		store, err := adapters.NewMemoryBlobStore(cfg.MemorySize)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case StoreRedis:
		addr := strings.TrimSpace(cfg.RedisAddr)
		if addr == "" {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("redis address is required for redis store")
		}
		store := adapters.NewRedisBlobStore(adapters.RedisStoreConfig{
			Address:  addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   redisKeyPrefix,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Ctx(ctx).Debug().Str("addr", addr).Msg("using redis manifest store")
		return store, store.Close, nil
	case StoreSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = paths.Resolve(types.LocationCache, "manifests.db")
		}
		store, err := adapters.NewSQLiteBlobStore(path)
		if err != nil {
			return nil, nil, err
		}
		log.Ctx(ctx).Debug().Str("path", path).Msg("using sqlite manifest store")
		return store, store.Close, nil
	default:
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported store backend: " + backend)
	}
}
