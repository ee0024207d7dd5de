package ports

import (
	"context"
	"time"
)

// BlobStorePort is the keyed persistent store (the second cache tier).
// Get methods return ok=false on a miss; errors are reserved for backend
// failures. A timestamp lives beside the blob under the same key and
// DeleteBlob removes both.
type BlobStorePort interface {
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	SetBlob(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeleteBlob(ctx context.Context, key string) error
	GetTimestamp(ctx context.Context, key string) (int64, bool, error)
	SetTimestamp(ctx context.Context, key string, value int64) error
}
