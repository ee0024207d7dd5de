package ports

// CachePolicyPort tells the cache whether the execution context wants
// persisted tiers (CLI, tests and development hosts do not).
type CachePolicyPort interface {
	CachingDisabled() bool
}
