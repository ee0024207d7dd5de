package adapters

import (
	"sync"

	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

// MemoryStyleCollector holds the records of one page render until the
// aggregator flushes them.
type MemoryStyleCollector struct {
	mu      sync.Mutex
	records []types.StyleRecord
}

func NewMemoryStyleCollector() *MemoryStyleCollector {
	return &MemoryStyleCollector{}
}

func (c *MemoryStyleCollector) Append(record types.StyleRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
}

func (c *MemoryStyleCollector) Flush() []types.StyleRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.records
	c.records = nil
	return out
}

func (c *MemoryStyleCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

var _ ports.StyleCollectorPort = (*MemoryStyleCollector)(nil)
