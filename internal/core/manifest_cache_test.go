package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"block-manifests/internal/adapters"
	"block-manifests/internal/ports"
	"block-manifests/internal/types"
	"block-manifests/tests/testutil"
)

type staticPolicy bool

func (p staticPolicy) CachingDisabled() bool { return bool(p) }

func newTestCache(t *testing.T, root string, store ports.BlobStorePort, disabled bool) *ManifestCache {
	t.Helper()
	return NewManifestCache(
		NewPathResolver(root, nil),
		adapters.NewOSFileSystem(),
		adapters.NewJSONManifestCodec(),
		store,
		staticPolicy(disabled),
		ManifestCacheOptions{},
	)
}

func newTestStore(t *testing.T) *adapters.MemoryBlobStore {
	t.Helper()
	store, err := adapters.NewMemoryBlobStore(16)
	require.NoError(t, err)
	return store
}

func TestManifestCacheRebuildsFromFiles(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newTestCache(t, root, nil, true)

	index, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierRebuild, cache.LastTier())

	assert.Equal(t, []string{"button", "heading"}, index.Identities(types.ResourceBlocks))
	assert.Equal(t, []string{"heading", "typography"}, index.Identities(types.ResourceComponents))
	assert.Equal(t, []string{"button-primary"}, index.Identities(types.ResourceVariations))

	settings, ok := index.Single(types.ResourceSettings)
	require.True(t, ok)
	assert.Equal(t, "eightshift", settings.String("namespace"))

	wrapper, ok := index.Single(types.ResourceWrapper)
	require.True(t, ok)
	assert.True(t, wrapper.Has("attributes"))

	namespace, err := cache.Namespace(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "eightshift", namespace)
}

func TestManifestCacheNamespacePropagation(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newTestCache(t, root, nil, true)

	block, err := cache.Block(t.Context(), "button")
	require.NoError(t, err)
	assert.Equal(t, "eightshift", block.String("namespace"))
	assert.Equal(t, "eightshift/button", block.String("blockFullName"))

	_, err = cache.Block(t.Context(), "missing")
	var blockErr *types.UnknownBlockError
	require.True(t, errors.As(err, &blockErr))
	assert.Equal(t, "missing", blockErr.Name)
}

func TestManifestCacheAutoset(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":                 `{"namespace":"ns","config":{"useVariations":false}}`,
		"src/Blocks/custom/card/manifest.json":     `{"blockName":"card"}`,
		"src/Blocks/variations/x/manifest.json":    `{"name":"x","parentName":"card"}`,
		"src/Blocks/components/link/manifest.json": `{"componentName":"link","attributes":{"linkUrl":{"type":"string"}}}`,
	})
	cache := newTestCache(t, root, nil, true)

	settings, err := cache.Settings(t.Context())
	require.NoError(t, err)
	assert.Equal(t, DefaultBlockClassPrefix, settings.String("blockClassPrefix"))
	assert.True(t, settings.Has("globalVariables"))

	config := settings.Object("config")
	require.NotNil(t, config)
	assert.Equal(t, []string{
		ConfigUseVariations,
		ConfigOutputCSSGlobally,
		ConfigOutputCSSOptimize,
		ConfigOutputCSSSelectorName,
		ConfigUseWrapper,
		ConfigUseComponents,
		ConfigUseBlocks,
	}, config.Keys(), "autoset fills absent keys only, after the authored ones")
	selector, _ := config.Get(ConfigOutputCSSSelectorName)
	assert.Equal(t, DefaultSelectorName, selector.Text())

	card, err := cache.Block(t.Context(), "card")
	require.NoError(t, err)
	attrs := card.Object("attributes")
	require.NotNil(t, attrs)
	assert.Equal(t, 0, attrs.Len())

	link, ok, err := cache.Component(t.Context(), "link")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, link.Object("attributes").Has("linkUrl"), "authored attributes are kept")

	all, err := cache.All(t.Context(), types.ResourceVariations)
	require.NoError(t, err)
	assert.Empty(t, all, "variations are disabled by the settings toggle")

	_, ok, err = cache.Wrapper(t.Context())
	require.NoError(t, err)
	assert.False(t, ok, "a missing optional single manifest is not an error")
}

func TestManifestCacheAutosetValuesAreNotShared(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":          `{"namespace":"ns"}`,
		"src/Blocks/custom/a/manifest.json": `{"blockName":"a"}`,
		"src/Blocks/custom/b/manifest.json": `{"blockName":"b"}`,
	})
	cache := newTestCache(t, root, nil, true)

	a, err := cache.Block(t.Context(), "a")
	require.NoError(t, err)
	a.Object("attributes").Set("aOnly", types.String("x"))

	b, err := cache.Block(t.Context(), "b")
	require.NoError(t, err)
	assert.False(t, b.Object("attributes").Has("aOnly"))
}

func TestManifestCacheMissingNamespace(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json": `{"blockClassPrefix":"block"}`,
	})
	cache := newTestCache(t, root, nil, true)

	_, err := cache.Load(t.Context())
	var missing *types.MissingManifestKeyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "namespace", missing.Key)
	assert.Equal(t, types.ResourceSettings, missing.Kind)
	assert.Equal(t, filepath.Join(root, "src", "Blocks", "manifest.json"), missing.Source)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, types.ErrorCode(err))
}

func TestManifestCacheMissingKeyInOptionalManifestIsFatal(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":                   `{"namespace":"ns"}`,
		"src/Blocks/variations/broken/manifest.json": `{"name":"broken"}`,
	})
	cache := newTestCache(t, root, nil, true)

	_, err := cache.Load(t.Context())
	var missing *types.MissingManifestKeyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "parentName", missing.Key)
	assert.Equal(t, types.ResourceVariations, missing.Kind)
}

func TestManifestCacheSkipsUnparsableManifests(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":              `{"namespace":"ns"}`,
		"src/Blocks/custom/good/manifest.json":  `{"blockName":"good"}`,
		"src/Blocks/custom/bad/manifest.json":   `{"blockName":`,
		"src/Blocks/custom/empty/manifest.json": ``,
	})
	cache := newTestCache(t, root, nil, true)

	index, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, index.Identities(types.ResourceBlocks))
}

func TestManifestCacheRequiredParseErrorKeepsCategory(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		category types.ParseCategory
	}{
		{"empty", "  ", types.ParseEmpty},
		{"syntax", `{"namespace":}`, types.ParseSyntax},
		{"encoding", "{\"namespace\":\"\xff\"}", types.ParseEncoding},
		{"unsupported", `["namespace"]`, types.ParseUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			testutil.WriteFiles(t, root, map[string]string{"src/Blocks/manifest.json": tt.content})
			cache := newTestCache(t, root, nil, true)

			_, err := cache.Load(t.Context())
			var parseErr *types.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.category, parseErr.Category)
			assert.Equal(t, filepath.Join(root, "src", "Blocks", "manifest.json"), parseErr.Source)
			assert.Contains(t, err.Error(), string(tt.category))
		})
	}
}

func TestManifestCacheMissingSettingsIsFatal(t *testing.T) {
	cache := newTestCache(t, t.TempDir(), nil, true)
	_, err := cache.Load(t.Context())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, types.ErrorCode(err))
}

func TestManifestCacheDuplicateIdentityLastPathWins(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":               `{"namespace":"ns"}`,
		"src/Blocks/custom/a-card/manifest.json": `{"blockName":"card","title":"first"}`,
		"src/Blocks/custom/b-card/manifest.json": `{"blockName":"card","title":"second"}`,
	})
	cache := newTestCache(t, root, nil, true)

	block, err := cache.Block(t.Context(), "card")
	require.NoError(t, err)
	assert.Equal(t, "second", block.String("title"))
}

func TestManifestCacheMemoryTierIsIdempotent(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newTestCache(t, root, newTestStore(t), false)

	first, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierRebuild, cache.LastTier())

	second, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierMemory, cache.LastTier())
	assert.Same(t, first, second)
}

func TestManifestCacheDisabledDoesNotPersist(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := newTestStore(t)
	cache := newTestCache(t, root, store, true)

	_, err := cache.Load(t.Context())
	require.NoError(t, err)

	_, err = os.Stat(cache.SnapshotPath())
	assert.True(t, os.IsNotExist(err))
	_, ok, err := store.GetBlob(t.Context(), cache.StoreKey())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManifestCachePersistsAndServesTiers(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := newTestStore(t)
	ctx := t.Context()

	built := newTestCache(t, root, store, false)
	rebuilt, err := built.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cache", "blocks", "manifests.json"), built.SnapshotPath())

	snapshot, err := os.ReadFile(built.SnapshotPath())
	require.NoError(t, err)
	blob, ok, err := store.GetBlob(ctx, built.StoreKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(snapshot), string(blob))

	fromStore := newTestCache(t, root, store, false)
	index, err := fromStore.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierStore, fromStore.LastTier())
	assert.True(t, rebuilt.ToObject().Equal(index.ToObject()))

	fromSnapshot := newTestCache(t, root, newTestStore(t), false)
	index, err = fromSnapshot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierSnapshot, fromSnapshot.LastTier())
	assert.True(t, rebuilt.ToObject().Equal(index.ToObject()))
}

func TestManifestCacheSnapshotBackfillsStore(t *testing.T) {
	root := testutil.FixtureProject(t)
	ctx := t.Context()

	_, err := newTestCache(t, root, nil, false).Load(ctx)
	require.NoError(t, err)

	store := newTestStore(t)
	cache := newTestCache(t, root, store, false)
	_, err = cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierSnapshot, cache.LastTier())

	info, err := os.Stat(cache.SnapshotPath())
	require.NoError(t, err)
	ts, ok, err := store.GetTimestamp(ctx, cache.StoreKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, info.ModTime().UnixNano(), ts)
}

func TestManifestCacheStaleStoreIsDiscarded(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := newTestStore(t)
	ctx := t.Context()

	cache := newTestCache(t, root, store, false)
	_, err := cache.Load(ctx)
	require.NoError(t, err)

	// The snapshot is rewritten by another process: new content, new mtime.
	touched := time.Now().Add(time.Hour).Truncate(time.Second)
	rewritten := `{"settings":{"settings":{"namespace":"rewritten"}}}`
	require.NoError(t, os.WriteFile(cache.SnapshotPath(), []byte(rewritten), 0644))
	require.NoError(t, os.Chtimes(cache.SnapshotPath(), touched, touched))

	next := newTestCache(t, root, store, false)
	namespace, err := next.Namespace(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierSnapshot, next.LastTier())
	assert.Equal(t, "rewritten", namespace)

	ts, ok, err := store.GetTimestamp(ctx, next.StoreKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, touched.UnixNano(), ts)
}

func TestManifestCacheStoreWithoutSnapshotIsStale(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := newTestStore(t)
	ctx := t.Context()

	cache := newTestCache(t, root, store, false)
	_, err := cache.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Remove(cache.SnapshotPath()))

	next := newTestCache(t, root, store, false)
	_, err = next.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierRebuild, next.LastTier())
}

func TestManifestCacheCorruptSnapshotRebuilds(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newTestCache(t, root, nil, false)
	testutil.WriteFiles(t, root, map[string]string{"cache/blocks/manifests.json": `{"settings":`})

	index, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, types.CacheTierRebuild, cache.LastTier())
	assert.Equal(t, 2, index.Count(types.ResourceBlocks))

	data, err := os.ReadFile(cache.SnapshotPath())
	require.NoError(t, err)
	_, err = adapters.NewJSONManifestCodec().Decode(data)
	assert.NoError(t, err, "the corrupt snapshot is replaced")
}

func TestManifestCacheSnapshotRoundTrip(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newTestCache(t, root, nil, true)
	codec := adapters.NewJSONManifestCodec()

	index, err := cache.Load(t.Context())
	require.NoError(t, err)

	encoded, err := codec.Encode(index.ToObject())
	require.NoError(t, err)
	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)

	if diff := cmp.Diff(index.ToObject().Interface(), decoded.Interface()); diff != "" {
		t.Fatalf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestCacheRebuildAndClear(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := newTestStore(t)
	ctx := t.Context()
	cache := newTestCache(t, root, store, true)

	first, err := cache.Load(ctx)
	require.NoError(t, err)

	second, err := cache.Rebuild(ctx, true)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	_, err = os.Stat(cache.SnapshotPath())
	require.NoError(t, err, "an explicit rebuild persists even when caching is disabled")

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, types.CacheTierNone, cache.LastTier())
	_, err = os.Stat(cache.SnapshotPath())
	assert.True(t, os.IsNotExist(err))
	_, ok, err := store.GetBlob(ctx, cache.StoreKey())
	require.NoError(t, err)
	assert.False(t, ok)

	third, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.NotSame(t, second, third)
	assert.Equal(t, types.CacheTierRebuild, cache.LastTier())
}

func TestManifestCacheValidator(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json":             `{"namespace":"ns"}`,
		"src/Blocks/custom/card/manifest.json": `{"blockName":"card","attributes":{"cardTitle":{"default":"x"}}}`,
	})
	validator, err := adapters.NewManifestSchemaValidator()
	require.NoError(t, err)
	cache := NewManifestCache(
		NewPathResolver(root, nil),
		adapters.NewOSFileSystem(),
		adapters.NewJSONManifestCodec(),
		nil,
		staticPolicy(true),
		ManifestCacheOptions{Validator: validator},
	)

	_, err = cache.Load(t.Context())
	var shapeErr *types.ManifestShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, types.ResourceBlocks, shapeErr.Kind)
}

func TestManifestCacheInvalidLocation(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := NewManifestCache(
		NewPathResolver(root, nil),
		adapters.NewOSFileSystem(),
		adapters.NewJSONManifestCodec(),
		nil,
		staticPolicy(true),
		ManifestCacheOptions{Resources: []types.ResourceDefinition{
			{Kind: types.ResourceSettings, Cardinality: types.CardinalitySingle, Location: types.LocationCache, Pattern: "manifest.json"},
		}},
	)
	_, err := cache.Load(t.Context())
	var pathErr *types.InvalidPathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, types.LocationCache, pathErr.Location)
}
