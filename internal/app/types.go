package app

import (
	"time"

	"block-manifests/internal/types"
)

const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"

	FormatJSON = "json"
	FormatYAML = "yaml"

	TargetBlock     = "block"
	TargetComponent = "component"
)

type Config struct {
	Root        string
	Environment string
	DevelopMode bool
	NoCache     bool
	CacheName   string
	CacheTTL    time.Duration
	Store       StoreConfig
	// StrictSchema turns on per-kind JSON schema checks during rebuild.
	StrictSchema bool
	// Paths overrides project locations, keyed by location name.
	Paths map[string]string
}

type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	MemorySize    int
}

type ValidateRequest struct{}

type KindCount struct {
	Kind  types.ResourceKind
	Count int
}

type ValidateResult struct {
	Namespace string
	Counts    []KindCount
}

type ManifestRequest struct {
	Kind     string
	Identity string
	Query    string
	Format   string
}

type ManifestResult struct {
	Output []byte
}

type SchemaRequest struct {
	Target string
	Name   string
	// Full includes default block and wrapper attributes for blocks.
	Full   bool
	Format string
}

type SchemaResult struct {
	Output []byte
	Keys   int
}

type CSSRequest struct {
	Target         string
	Name           string
	AttributesPath string
	UniqueID       string
	Selector       string
	Globals        bool
}

type CSSResult struct {
	CSS      string
	UniqueID string
	Strategy string
}

type CacheBuildRequest struct{}

type CacheBuildResult struct {
	SnapshotPath string
	StoreKey     string
	Size         int64
	Manifests    int
}

type CacheClearRequest struct{}

type CacheClearResult struct {
	SnapshotPath string
	StoreKey     string
}

type WatchRequest struct {
	// Persist writes every rebuild to the store and snapshot.
	Persist bool
}

type WatchEvent struct {
	Path      string
	At        time.Time
	Manifests int
	Err       error
}
