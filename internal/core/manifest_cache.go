package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/metrics"
	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

const (
	DefaultCacheName = "blocks"
	snapshotFile     = "manifests.json"
)

type ManifestCacheOptions struct {
	// Name keys the persistent store entry and the snapshot directory.
	Name string
	// TTL bounds the persistent store entry. Zero keeps it until cleared.
	TTL       time.Duration
	Resources []types.ResourceDefinition
	// Validator, when set, checks every manifest after the required keys.
	Validator ports.ManifestValidatorPort
}

// ManifestCache discovers, completes and merges manifests and serves the
// merged index through a memory tier, a persistent store and a file
// snapshot. The memory tier is filled once; Rebuild and Clear replace it.
type ManifestCache struct {
	paths     *PathResolver
	fs        ports.FileSystemPort
	codec     ports.ManifestCodecPort
	store     ports.BlobStorePort
	policy    ports.CachePolicyPort
	validator ports.ManifestValidatorPort
	resources []types.ResourceDefinition
	name      string
	ttl       time.Duration

	mu        sync.Mutex
	index     *types.ManifestIndex
	namespace string
	lastTier  types.CacheTier
}

// NewManifestCache wires the cache. store may be nil, in which case the
// persistent tier is skipped.
func NewManifestCache(
	paths *PathResolver,
	fs ports.FileSystemPort,
	codec ports.ManifestCodecPort,
	store ports.BlobStorePort,
	policy ports.CachePolicyPort,
	opts ManifestCacheOptions,
) *ManifestCache {
	if opts.Name == "" {
		opts.Name = DefaultCacheName
	}
	if opts.Resources == nil {
		opts.Resources = DefaultResources()
	}
	return &ManifestCache{
		paths:     paths,
		fs:        fs,
		codec:     codec,
		store:     store,
		policy:    policy,
		validator: opts.Validator,
		resources: opts.Resources,
		name:      opts.Name,
		ttl:       opts.TTL,
	}
}

// StoreKey is the persistent store key of the merged index.
func (c *ManifestCache) StoreKey() string {
	return c.name + "_manifests"
}

// SnapshotPath is where the file snapshot of the merged index lives.
func (c *ManifestCache) SnapshotPath() string {
	return c.paths.Resolve(types.LocationCache, c.name, snapshotFile)
}

// LastTier reports which tier served the most recent Load.
func (c *ManifestCache) LastTier() types.CacheTier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTier
}

// Namespace returns the namespace captured from the settings manifest.
func (c *ManifestCache) Namespace(ctx context.Context) (string, error) {
	if _, err := c.Load(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespace, nil
}

// Load returns the merged index, trying memory, the persistent store, the
// file snapshot and finally a rebuild from the manifest files.
func (c *ManifestCache) Load(ctx context.Context) (*types.ManifestIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != nil {
		c.lastTier = types.CacheTierMemory
		metrics.RecordLookup(string(types.CacheTierMemory), metrics.OutcomeHit)
		return c.index, nil
	}
	metrics.RecordLookup(string(types.CacheTierMemory), metrics.OutcomeMiss)

	if c.policy != nil && c.policy.CachingDisabled() {
		index, err := c.rebuild(ctx)
		if err != nil {
			return nil, err
		}
		c.adopt(index, types.CacheTierRebuild)
		return index, nil
	}

	snapshotTime, hasSnapshot := c.fs.ModTime(c.SnapshotPath())

	if index, ok := c.loadFromStore(ctx, snapshotTime, hasSnapshot); ok {
		c.adopt(index, types.CacheTierStore)
		return index, nil
	}

	if hasSnapshot {
		if index, ok := c.loadFromSnapshot(ctx, snapshotTime); ok {
			c.adopt(index, types.CacheTierSnapshot)
			return index, nil
		}
	}

	index, err := c.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	c.persist(ctx, index)
	c.adopt(index, types.CacheTierRebuild)
	return index, nil
}

// Rebuild discards the memory tier and rebuilds from the manifest files.
// When persist is true the result is written to the store and snapshot
// regardless of the cache policy.
func (c *ManifestCache) Rebuild(ctx context.Context, persist bool) (*types.ManifestIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := c.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	if persist {
		if err := c.write(ctx, index); err != nil {
			return nil, err
		}
	}
	c.adopt(index, types.CacheTierRebuild)
	return index, nil
}

// Clear drops the memory tier, the persistent entry and the snapshot.
func (c *ManifestCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = nil
	c.namespace = ""
	c.lastTier = types.CacheTierNone
	if c.store != nil {
		if err := c.store.DeleteBlob(ctx, c.StoreKey()); err != nil {
			return err
		}
	}
	if err := c.fs.RemoveFile(c.SnapshotPath()); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("cache", c.name).Msg("manifest cache cleared")
	return nil
}

// Manifest returns one manifest. Single kinds use their kind name as
// identity.
func (c *ManifestCache) Manifest(ctx context.Context, kind types.ResourceKind, identity string) (*types.Object, bool, error) {
	index, err := c.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	manifest, ok := index.Get(kind, identity)
	return manifest, ok, nil
}

// All returns every manifest of kind keyed by identity.
func (c *ManifestCache) All(ctx context.Context, kind types.ResourceKind) (map[string]*types.Object, error) {
	index, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return index.All(kind), nil
}

func (c *ManifestCache) Settings(ctx context.Context) (*types.Object, error) {
	index, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	settings, ok := index.Single(types.ResourceSettings)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("settings manifest is not cached")
	}
	return settings, nil
}

func (c *ManifestCache) Wrapper(ctx context.Context) (*types.Object, bool, error) {
	return c.Manifest(ctx, types.ResourceWrapper, string(types.ResourceWrapper))
}

func (c *ManifestCache) Block(ctx context.Context, name string) (*types.Object, error) {
	manifest, ok, err := c.Manifest(ctx, types.ResourceBlocks, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.UnknownBlockError{Name: name}
	}
	return manifest, nil
}

func (c *ManifestCache) Component(ctx context.Context, name string) (*types.Object, bool, error) {
	return c.Manifest(ctx, types.ResourceComponents, name)
}

func (c *ManifestCache) adopt(index *types.ManifestIndex, tier types.CacheTier) {
	c.index = index
	c.lastTier = tier
	if settings, ok := index.Single(types.ResourceSettings); ok {
		c.namespace = settings.String("namespace")
	}
}

func (c *ManifestCache) loadFromStore(ctx context.Context, snapshotTime time.Time, hasSnapshot bool) (*types.ManifestIndex, bool) {
	if c.store == nil {
		return nil, false
	}
	key := c.StoreKey()
	tier := string(types.CacheTierStore)
	logger := log.Ctx(ctx).With().Str("cache", c.name).Str("key", key).Logger()

	blob, ok, err := c.store.GetBlob(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("persistent store unavailable")
		metrics.RecordLookup(tier, metrics.OutcomeMiss)
		return nil, false
	}
	if !ok {
		metrics.RecordLookup(tier, metrics.OutcomeMiss)
		return nil, false
	}
	recorded, hasTimestamp, err := c.store.GetTimestamp(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("persistent store timestamp unavailable")
		metrics.RecordLookup(tier, metrics.OutcomeMiss)
		return nil, false
	}

	entry := types.CacheEntry{Content: blob}
	if hasTimestamp {
		entry.SourceTimestamp = recorded
	}
	if !hasSnapshot || !hasTimestamp || !entry.FreshAgainst(snapshotTime.UnixNano()) {
		logger.Debug().Int64("recorded", recorded).Bool("snapshot", hasSnapshot).Msg("persistent entry is stale")
		metrics.RecordLookup(tier, metrics.OutcomeStale)
		c.discard(ctx, key)
		return nil, false
	}

	doc, err := c.codec.Decode(entry.Content)
	if err != nil {
		logger.Warn().Err(err).Msg("persistent entry is unreadable")
		metrics.RecordLookup(tier, metrics.OutcomeStale)
		c.discard(ctx, key)
		return nil, false
	}
	metrics.RecordLookup(tier, metrics.OutcomeHit)
	logger.Debug().Msg("manifests served from persistent store")
	return types.ManifestIndexFromObject(doc), true
}

func (c *ManifestCache) loadFromSnapshot(ctx context.Context, snapshotTime time.Time) (*types.ManifestIndex, bool) {
	path := c.SnapshotPath()
	tier := string(types.CacheTierSnapshot)
	logger := log.Ctx(ctx).With().Str("cache", c.name).Str("path", path).Logger()

	data, err := c.fs.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot is unreadable")
		metrics.RecordLookup(tier, metrics.OutcomeMiss)
		return nil, false
	}
	doc, err := c.codec.Decode(data)
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot is not a valid manifest document")
		metrics.RecordLookup(tier, metrics.OutcomeStale)
		return nil, false
	}
	metrics.RecordLookup(tier, metrics.OutcomeHit)

	if c.store != nil {
		key := c.StoreKey()
		if err := c.store.SetBlob(ctx, key, data, c.ttl); err != nil {
			logger.Warn().Err(err).Msg("failed to backfill persistent store")
		} else if err := c.store.SetTimestamp(ctx, key, snapshotTime.UnixNano()); err != nil {
			logger.Warn().Err(err).Msg("failed to record snapshot timestamp")
		}
	}
	logger.Debug().Msg("manifests served from snapshot")
	return types.ManifestIndexFromObject(doc), true
}

func (c *ManifestCache) discard(ctx context.Context, key string) {
	if err := c.store.DeleteBlob(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to discard persistent entry")
	}
}

// persist writes the rebuilt index to the snapshot and the store. Failures
// are logged; the rebuilt index is still served from memory.
func (c *ManifestCache) persist(ctx context.Context, index *types.ManifestIndex) {
	if err := c.write(ctx, index); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("failed to persist manifests")
	}
}

func (c *ManifestCache) write(ctx context.Context, index *types.ManifestIndex) error {
	data, err := c.codec.Encode(index.ToObject())
	if err != nil {
		return err
	}
	path := c.SnapshotPath()
	if err := c.fs.WriteFileAtomic(path, data); err != nil {
		return err
	}
	if c.store == nil {
		return nil
	}
	modTime, ok := c.fs.ModTime(path)
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("snapshot disappeared after write: " + path)
	}
	key := c.StoreKey()
	if err := c.store.SetBlob(ctx, key, data, c.ttl); err != nil {
		return err
	}
	return c.store.SetTimestamp(ctx, key, modTime.UnixNano())
}

func (c *ManifestCache) rebuild(ctx context.Context) (*types.ManifestIndex, error) {
	started := time.Now()
	index := types.NewManifestIndex()
	b := &rebuildState{cache: c, index: index}

	for _, def := range c.resources {
		if !b.enabled(def) {
			log.Ctx(ctx).Debug().Str("kind", string(def.Kind)).Msg("resource kind disabled in settings")
			continue
		}
		var err error
		switch def.Cardinality {
		case types.CardinalityMultiple:
			err = b.readMultiple(ctx, def)
		default:
			err = b.readSingle(ctx, def)
		}
		if err != nil {
			return nil, err
		}
	}

	metrics.RebuildDuration.Observe(time.Since(started).Seconds())
	event := log.Ctx(ctx).Debug().Str("cache", c.name).Dur("took", time.Since(started))
	for _, kind := range index.Kinds() {
		event = event.Int(string(kind), index.Count(kind))
	}
	event.Msg("manifests rebuilt")
	return index, nil
}

// rebuildState carries what later manifests of one rebuild depend on.
type rebuildState struct {
	cache     *ManifestCache
	index     *types.ManifestIndex
	settings  *types.Object
	namespace string
}

func (b *rebuildState) enabled(def types.ResourceDefinition) bool {
	if def.Toggle == "" || b.settings == nil {
		return true
	}
	return configEnabled(b.settings, def.Toggle)
}

func (b *rebuildState) readSingle(ctx context.Context, def types.ResourceDefinition) error {
	path, err := b.cache.paths.ManifestPath(def.Location, def.Pattern)
	if err != nil {
		return err
	}
	manifest, ok, err := b.read(ctx, def, path)
	if err != nil || !ok {
		return err
	}
	if err := b.process(ctx, def, path, manifest); err != nil {
		return err
	}
	b.index.PutSingle(def.Kind, manifest)
	return nil
}

func (b *rebuildState) readMultiple(ctx context.Context, def types.ResourceDefinition) error {
	pattern, err := b.cache.paths.ManifestPath(def.Location, filepath.FromSlash(def.Pattern))
	if err != nil {
		return err
	}
	paths, err := b.cache.fs.Glob(pattern)
	if err != nil {
		if def.Required {
			return err
		}
		log.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("manifest discovery failed")
		return nil
	}
	for _, path := range paths {
		manifest, ok, err := b.read(ctx, def, path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := b.process(ctx, def, path, manifest); err != nil {
			return err
		}
		identity := manifest.String(def.Identity)
		if _, exists := b.index.Get(def.Kind, identity); exists {
			log.Ctx(ctx).Warn().
				Str("kind", string(def.Kind)).
				Str("identity", identity).
				Str("path", path).
				Msg("duplicate manifest identity, later path wins")
		}
		b.index.Put(def.Kind, identity, manifest)
	}
	return nil
}

// read returns ok=false for manifests that are skipped. Errors are only
// returned for required kinds.
func (b *rebuildState) read(ctx context.Context, def types.ResourceDefinition, path string) (*types.Object, bool, error) {
	data, err := b.cache.fs.ReadFile(path)
	if err != nil {
		if def.Required {
			return nil, false, err
		}
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound && def.Cardinality == types.CardinalitySingle {
			log.Ctx(ctx).Debug().Str("kind", string(def.Kind)).Str("path", path).Msg("optional manifest absent")
			return nil, false, nil
		}
		b.skip(ctx, def, path, err)
		return nil, false, nil
	}
	manifest, err := b.cache.codec.Decode(data)
	if err != nil {
		var parseErr *types.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = path
		}
		if def.Required {
			return nil, false, err
		}
		b.skip(ctx, def, path, err)
		return nil, false, nil
	}
	return manifest, true, nil
}

func (b *rebuildState) skip(ctx context.Context, def types.ResourceDefinition, path string, err error) {
	metrics.RecordSkipped(string(def.Kind))
	log.Ctx(ctx).Warn().Err(err).Str("kind", string(def.Kind)).Str("path", path).Msg("skipping manifest")
}

func (b *rebuildState) process(ctx context.Context, def types.ResourceDefinition, path string, manifest *types.Object) error {
	applyAutoset(manifest, def.Autoset)
	b.propagate(def, manifest)
	if err := requireKeys(def, path, manifest); err != nil {
		return err
	}
	if b.cache.validator != nil {
		if err := b.cache.validator.Validate(def.Kind, path, manifest); err != nil {
			return err
		}
	}
	if def.Kind == types.ResourceSettings {
		log.Ctx(ctx).Debug().Str("namespace", b.namespace).Msg("namespace captured")
	}
	return nil
}

func (b *rebuildState) propagate(def types.ResourceDefinition, manifest *types.Object) {
	switch def.Kind {
	case types.ResourceSettings:
		b.settings = manifest
		b.namespace = manifest.String("namespace")
	case types.ResourceBlocks:
		manifest.Set("namespace", types.String(b.namespace))
		if name := manifest.String("blockName"); name != "" {
			manifest.Set("blockFullName", types.String(b.namespace+"/"+name))
		}
	}
}

func applyAutoset(manifest *types.Object, rules []types.AutosetRule) {
	for _, rule := range rules {
		target := manifest
		if rule.Parent != "" {
			parent := manifest.Object(rule.Parent)
			if parent == nil {
				if manifest.Has(rule.Parent) {
					continue
				}
				parent = types.NewObject()
				manifest.Set(rule.Parent, types.ObjectValue(parent))
			}
			target = parent
		}
		if !target.Has(rule.Key) {
			target.Set(rule.Key, rule.Value.Clone())
		}
	}
}

func requireKeys(def types.ResourceDefinition, path string, manifest *types.Object) error {
	for _, key := range def.RequiredKeys {
		value, ok := manifest.Get(key)
		if !ok || value.IsNull() {
			return &types.MissingManifestKeyError{Key: key, Kind: def.Kind, Source: path}
		}
	}
	return nil
}

var _ ports.ManifestSourcePort = (*ManifestCache)(nil)
