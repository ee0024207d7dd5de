package types

import "sort"

type ResourceKind string

const (
	ResourceSettings   ResourceKind = "settings"
	ResourceWrapper    ResourceKind = "wrapper"
	ResourceBlocks     ResourceKind = "blocks"
	ResourceComponents ResourceKind = "components"
	ResourceVariations ResourceKind = "variations"
)

type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
)

// Location names a logical directory that the path resolver maps onto
// the project tree.
type Location string

const (
	LocationRoot         Location = "root"
	LocationBlocks       Location = "blocks"
	LocationBlocksCustom Location = "blocksCustom"
	LocationComponents   Location = "components"
	LocationVariations   Location = "variations"
	LocationWrapper      Location = "wrapper"
	LocationCache        Location = "cache"
)

// AutosetRule fills Key with Value when the manifest does not define it.
// When Parent is set the key is looked up (and created) inside that
// nested object instead of at the top level.
type AutosetRule struct {
	Parent string
	Key    string
	Value  Value
}

// ResourceDefinition declares one kind of manifest and how it is found,
// keyed, completed and validated.
type ResourceDefinition struct {
	Kind        ResourceKind
	Cardinality Cardinality
	Location    Location

	// Pattern is the file name for single resources and a glob relative
	// to Location for multiple ones.
	Pattern string

	// Identity is the manifest key used to index multiple resources.
	Identity string

	RequiredKeys []string
	Autoset      []AutosetRule

	// Required marks resources whose read or parse failure aborts the
	// rebuild instead of being skipped.
	Required bool

	// Toggle is the settings config key that enables this kind. Empty
	// means always enabled.
	Toggle string
}

// ManifestIndex is the merged cache structure: kind -> identity ->
// manifest. Single resources are stored under their kind name.
type ManifestIndex struct {
	entries map[ResourceKind]map[string]*Object
}

func NewManifestIndex() *ManifestIndex {
	return &ManifestIndex{entries: map[ResourceKind]map[string]*Object{}}
}

func (i *ManifestIndex) Put(kind ResourceKind, identity string, manifest *Object) {
	bucket, ok := i.entries[kind]
	if !ok {
		bucket = map[string]*Object{}
		i.entries[kind] = bucket
	}
	bucket[identity] = manifest
}

// PutSingle stores a single-cardinality manifest.
func (i *ManifestIndex) PutSingle(kind ResourceKind, manifest *Object) {
	i.Put(kind, string(kind), manifest)
}

func (i *ManifestIndex) Get(kind ResourceKind, identity string) (*Object, bool) {
	if i == nil {
		return nil, false
	}
	manifest, ok := i.entries[kind][identity]
	return manifest, ok
}

func (i *ManifestIndex) Single(kind ResourceKind) (*Object, bool) {
	return i.Get(kind, string(kind))
}

// All returns a copy of the identity map for kind. Manifests are shared,
// not cloned; treat them as read-only.
func (i *ManifestIndex) All(kind ResourceKind) map[string]*Object {
	out := map[string]*Object{}
	if i == nil {
		return out
	}
	for identity, manifest := range i.entries[kind] {
		out[identity] = manifest
	}
	return out
}

// Identities returns the sorted identities stored for kind.
func (i *ManifestIndex) Identities(kind ResourceKind) []string {
	if i == nil {
		return nil
	}
	ids := make([]string, 0, len(i.entries[kind]))
	for id := range i.entries[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Kinds returns the sorted kinds present in the index.
func (i *ManifestIndex) Kinds() []ResourceKind {
	if i == nil {
		return nil
	}
	kinds := make([]ResourceKind, 0, len(i.entries))
	for kind := range i.entries {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(a, b int) bool { return kinds[a] < kinds[b] })
	return kinds
}

func (i *ManifestIndex) Count(kind ResourceKind) int {
	if i == nil {
		return 0
	}
	return len(i.entries[kind])
}

// ToObject converts the index into the snapshot document shape:
// {kind: {identity: manifest}} with sorted keys.
func (i *ManifestIndex) ToObject() *Object {
	root := NewObject()
	for _, kind := range i.Kinds() {
		bucket := NewObject()
		for _, id := range i.Identities(kind) {
			bucket.Set(id, ObjectValue(i.entries[kind][id]))
		}
		root.Set(string(kind), ObjectValue(bucket))
	}
	return root
}

// ManifestIndexFromObject is the inverse of ToObject. Entries that are not
// objects are dropped.
func ManifestIndexFromObject(root *Object) *ManifestIndex {
	index := NewManifestIndex()
	root.Each(func(kind string, bucketValue Value) bool {
		bucket, ok := bucketValue.AsObject()
		if !ok {
			return true
		}
		bucket.Each(func(identity string, manifestValue Value) bool {
			if manifest, ok := manifestValue.AsObject(); ok {
				index.Put(ResourceKind(kind), identity, manifest)
			}
			return true
		})
		return true
	})
	return index
}

// CacheEntry is a persisted blob paired with the modification time of the
// snapshot file it was copied from.
type CacheEntry struct {
	Content         []byte
	SourceTimestamp int64
}

// FreshAgainst reports whether the entry still matches the snapshot.
func (e CacheEntry) FreshAgainst(current int64) bool {
	return len(e.Content) > 0 && e.SourceTimestamp == current
}

// CacheTier identifies which tier served a manifest lookup.
type CacheTier string

const (
	CacheTierNone     CacheTier = ""
	CacheTierMemory   CacheTier = "memory"
	CacheTierStore    CacheTier = "store"
	CacheTierSnapshot CacheTier = "snapshot"
	CacheTierRebuild  CacheTier = "rebuild"
)
