package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"block-manifests/internal/adapters"
	"block-manifests/internal/core"
	"block-manifests/internal/ports"
	"block-manifests/internal/types"
	"block-manifests/tests/testutil"
)

func newCache(root string, store ports.BlobStorePort, policy ports.CachePolicyPort) *core.ManifestCache {
	return core.NewManifestCache(
		core.NewPathResolver(root, nil),
		adapters.NewOSFileSystem(),
		adapters.NewJSONManifestCodec(),
		store,
		policy,
		core.ManifestCacheOptions{},
	)
}

func openSQLite(t *testing.T, root string) *adapters.SQLiteBlobStore {
	t.Helper()
	store, err := adapters.NewSQLiteBlobStore(filepath.Join(root, "cache", "manifests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func loadTier(t *testing.T, cache *core.ManifestCache) types.CacheTier {
	t.Helper()
	index, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"button", "heading"}, index.Identities(types.ResourceBlocks))
	return cache.LastTier()
}

func TestCacheTiersAcrossProcesses(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := openSQLite(t, root)
	production := func() ports.CachePolicyPort {
		return adapters.NewEnvironmentPolicy("production", false, false)
	}

	first := newCache(root, store, production())
	assert.Equal(t, types.CacheTierRebuild, loadTier(t, first))
	require.FileExists(t, first.SnapshotPath())
	assert.Equal(t, types.CacheTierMemory, loadTier(t, first))

	assert.Equal(t, types.CacheTierStore, loadTier(t, newCache(root, store, production())))

	require.NoError(t, store.DeleteBlob(t.Context(), first.StoreKey()))
	assert.Equal(t, types.CacheTierSnapshot, loadTier(t, newCache(root, store, production())))
	assert.Equal(t, types.CacheTierStore, loadTier(t, newCache(root, store, production())),
		"snapshot hit backfills the store")

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(first.SnapshotPath(), later, later))
	assert.Equal(t, types.CacheTierSnapshot, loadTier(t, newCache(root, store, production())),
		"a touched snapshot makes the store entry stale")
}

func TestDevelopmentPolicyAlwaysRebuilds(t *testing.T) {
	root := testutil.FixtureProject(t)
	store := openSQLite(t, root)

	built := newCache(root, store, adapters.NewEnvironmentPolicy("production", false, false))
	_, err := built.Rebuild(t.Context(), true)
	require.NoError(t, err)

	for _, policy := range []*adapters.EnvironmentPolicy{
		adapters.NewEnvironmentPolicy("development", false, false),
		adapters.NewEnvironmentPolicy("production", true, false),
		adapters.NewEnvironmentPolicy("production", false, true),
	} {
		assert.Equal(t, types.CacheTierRebuild, loadTier(t, newCache(root, store, policy)),
			"environment %q develop %v no-cache %v", policy.Environment, policy.DevelopMode, policy.NoCache)
	}
}

func TestRebuildPicksUpEditedManifest(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newCache(root, nil, adapters.NewEnvironmentPolicy("production", false, false))

	button, err := cache.Block(t.Context(), "button")
	require.NoError(t, err)
	assert.Equal(t, "eightshift/button", button.String("blockFullName"))

	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/custom/card/manifest.json": `{"blockName": "card", "attributes": {}}`,
	})
	_, err = cache.Block(t.Context(), "card")
	var unknown *types.UnknownBlockError
	require.ErrorAs(t, err, &unknown, "memory tier serves the earlier index")

	_, err = cache.Rebuild(t.Context(), false)
	require.NoError(t, err)
	card, err := cache.Block(t.Context(), "card")
	require.NoError(t, err)
	assert.Equal(t, "eightshift/card", card.String("blockFullName"))
}

// nestedStyles renders the heading component of the heading block and the
// typography component nested in it as "content".
func nestedStyles(t *testing.T, source ports.ManifestSourcePort, gen *core.ResponsiveGenerator, blockAttrs types.Attributes) []types.StyleOutput {
	t.Helper()
	ctx := context.Background()
	block, err := source.Block(ctx, "heading")
	require.NoError(t, err)
	heading, ok, err := source.Component(ctx, "heading")
	require.NoError(t, err)
	require.True(t, ok)
	typography, ok, err := source.Component(ctx, "typography")
	require.NoError(t, err)
	require.True(t, ok)

	headingAttrs := core.NestedAttributes(blockAttrs, block, "heading")
	contentAttrs := core.NestedAttributes(headingAttrs, heading, "content")

	var outputs []types.StyleOutput
	for _, req := range []core.StyleRequest{
		{Manifest: heading, Attributes: headingAttrs, UniqueID: "u"},
		{Manifest: typography, Attributes: contentAttrs, UniqueID: "u"},
	} {
		out, err := gen.Generate(ctx, req)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}
	return outputs
}

var headingBlockAttrs = types.Attributes{
	"headingAlignTablet": types.String("right"),
	"headingContentSize": types.String("big"),
}

func TestNestedComponentStylesInline(t *testing.T) {
	root := testutil.FixtureProject(t)
	cache := newCache(root, nil, adapters.NewEnvironmentPolicy("", false, true))
	gen := core.NewResponsiveGenerator(cache, adapters.NewMemoryStyleCollector())

	outputs := nestedStyles(t, cache, gen, headingBlockAttrs)
	require.Len(t, outputs, 2)
	assert.Equal(t, ".heading[data-id='u']{\n--heading-align: left;\n}\n"+
		"@media (min-width: 768px){\n.heading[data-id='u']{\n--heading-align: right;\n}\n}\n", outputs[0].CSS)
	assert.Equal(t, ".typography[data-id='u']{\n--typography-font-size: 2rem;\n}\n", outputs[1].CSS)
}

func TestNestedComponentStylesAggregated(t *testing.T) {
	root := testutil.FixtureProject(t)
	settings := testutil.ProjectFiles()["src/Blocks/manifest.json"]
	testutil.WriteFiles(t, root, map[string]string{
		"src/Blocks/manifest.json": strings.Replace(settings,
			`"config": {`, `"config": {"outputCssGlobally": true, `, 1),
	})
	cache := newCache(root, nil, adapters.NewEnvironmentPolicy("", false, true))
	collector := adapters.NewMemoryStyleCollector()
	gen := core.NewResponsiveGenerator(cache, collector)

	for _, out := range nestedStyles(t, cache, gen, headingBlockAttrs) {
		assert.True(t, out.Deferred)
	}
	assert.Equal(t, 2, collector.Len())

	tag, err := gen.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<style id="esCssVariables">`+
		".heading[data-id='u']{\n--heading-align: left;\n}\n"+
		".typography[data-id='u']{\n--typography-font-size: 2rem;\n}\n"+
		"@media (min-width: 768px){\n.heading[data-id='u']{\n--heading-align: right;\n}\n}\n"+
		"</style>", tag)
}
