package core

import (
	"path/filepath"
	"sync"

	"block-manifests/internal/types"
)

var defaultLocations = map[types.Location]string{
	types.LocationRoot:         "",
	types.LocationBlocks:       filepath.Join("src", "Blocks"),
	types.LocationBlocksCustom: filepath.Join("src", "Blocks", "custom"),
	types.LocationComponents:   filepath.Join("src", "Blocks", "components"),
	types.LocationVariations:   filepath.Join("src", "Blocks", "variations"),
	types.LocationWrapper:      filepath.Join("src", "Blocks", "wrapper"),
	types.LocationCache:        "cache",
}

// manifestLocations are the locations manifests may be discovered in.
var manifestLocations = map[types.Location]struct{}{
	types.LocationBlocks:       {},
	types.LocationBlocksCustom: {},
	types.LocationComponents:   {},
	types.LocationVariations:   {},
	types.LocationWrapper:      {},
}

// PathResolver maps logical locations onto the project tree. The table is
// built on first use and never changes afterwards.
type PathResolver struct {
	root      string
	overrides map[types.Location]string

	once  sync.Once
	table map[types.Location]string
}

// NewPathResolver returns a resolver rooted at root. Relative overrides are
// joined to root; absolute ones are used as-is.
func NewPathResolver(root string, overrides map[types.Location]string) *PathResolver {
	copied := make(map[types.Location]string, len(overrides))
	for location, path := range overrides {
		copied[location] = path
	}
	return &PathResolver{root: root, overrides: copied}
}

func (r *PathResolver) Root() string {
	return r.root
}

// Resolve joins suffix onto the directory of location. Unknown locations
// resolve relative to the project root.
func (r *PathResolver) Resolve(location types.Location, suffix ...string) string {
	base, ok := r.base()[location]
	if !ok {
		base = r.root
	}
	return filepath.Join(append([]string{base}, suffix...)...)
}

// ManifestPath is Resolve restricted to manifest locations. It fails before
// any I/O when asked for the root, the cache or an unknown location.
func (r *PathResolver) ManifestPath(location types.Location, suffix ...string) (string, error) {
	if _, ok := manifestLocations[location]; !ok {
		return "", &types.InvalidPathError{Location: location}
	}
	return r.Resolve(location, suffix...), nil
}

// ManifestRoots returns the directories manifests are discovered in.
func (r *PathResolver) ManifestRoots() []string {
	return []string{
		r.Resolve(types.LocationBlocks),
		r.Resolve(types.LocationWrapper),
		r.Resolve(types.LocationBlocksCustom),
		r.Resolve(types.LocationComponents),
		r.Resolve(types.LocationVariations),
	}
}

func (r *PathResolver) base() map[types.Location]string {
	r.once.Do(func() {
		table := make(map[types.Location]string, len(defaultLocations))
		for location, rel := range defaultLocations {
			table[location] = filepath.Join(r.root, rel)
		}
		for location, path := range r.overrides {
			if filepath.IsAbs(path) {
				table[location] = filepath.Clean(path)
				continue
			}
			table[location] = filepath.Join(r.root, path)
		}
		r.table = table
	})
	return r.table
}
