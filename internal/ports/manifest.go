package ports

import (
	"context"

	"block-manifests/internal/types"
)

// ManifestCodecPort decodes and encodes manifest documents. Decode errors
// are *types.ParseError carrying the decoder's category.
type ManifestCodecPort interface {
	Decode(data []byte) (*types.Object, error)
	Encode(manifest *types.Object) ([]byte, error)
}

// ManifestValidatorPort checks the shape of a manifest of the given kind.
type ManifestValidatorPort interface {
	Validate(kind types.ResourceKind, source string, manifest *types.Object) error
}

// ManifestSourcePort is the read-only view other components get of the
// merged manifest cache.
type ManifestSourcePort interface {
	Settings(ctx context.Context) (*types.Object, error)
	Wrapper(ctx context.Context) (*types.Object, bool, error)
	Block(ctx context.Context, name string) (*types.Object, error)
	Component(ctx context.Context, name string) (*types.Object, bool, error)
}

// ManifestQueryPort evaluates a JSONPath expression against a manifest
// document.
type ManifestQueryPort interface {
	Query(document *types.Object, expression string) ([]types.Value, error)
}

// ManifestWatcherPort reports manifest changes under the given roots until
// the context is cancelled.
type ManifestWatcherPort interface {
	Watch(ctx context.Context, roots []string, onChange func(path string)) error
}
