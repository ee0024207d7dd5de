package adapters

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	lru "github.com/hashicorp/golang-lru/v2"

	"block-manifests/internal/ports"
)

const defaultMemoryStoreSize = 256

type memoryBlob struct {
	data      []byte
	expiresAt time.Time
}

// MemoryBlobStore keeps blobs in a bounded LRU. It backs the persistent
// tier when no external store is configured, so entries live as long as
// the process.
type MemoryBlobStore struct {
	blobs      *lru.Cache[string, memoryBlob]
	timestamps *lru.Cache[string, int64]
	Clock      func() time.Time
}

func NewMemoryBlobStore(size int) (*MemoryBlobStore, error) {
	if size <= 0 {
		size = defaultMemoryStoreSize
	}
	blobs, err := lru.New[string, memoryBlob](size)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create memory blob store").
			WithCause(err)
	}
	timestamps, err := lru.New[string, int64](size)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create memory timestamp store").
			WithCause(err)
	}
	return &MemoryBlobStore{blobs: blobs, timestamps: timestamps, Clock: time.Now}, nil
}

func (s *MemoryBlobStore) GetBlob(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.blobs.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.Clock().Before(entry.expiresAt) {
		s.blobs.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.data...), true, nil
}

// SetBlob stores data; ttl <= 0 means no expiry.
func (s *MemoryBlobStore) SetBlob(_ context.Context, key string, data []byte, ttl time.Duration) error {
	entry := memoryBlob{data: append([]byte(nil), data...)}
	if ttl > 0 {
		entry.expiresAt = s.Clock().Add(ttl)
	}
	s.blobs.Add(key, entry)
	return nil
}

func (s *MemoryBlobStore) DeleteBlob(_ context.Context, key string) error {
	s.blobs.Remove(key)
	s.timestamps.Remove(key)
	return nil
}

func (s *MemoryBlobStore) GetTimestamp(_ context.Context, key string) (int64, bool, error) {
	value, ok := s.timestamps.Get(key)
	return value, ok, nil
}

func (s *MemoryBlobStore) SetTimestamp(_ context.Context, key string, value int64) error {
	s.timestamps.Add(key, value)
	return nil
}

var _ ports.BlobStorePort = (*MemoryBlobStore)(nil)
