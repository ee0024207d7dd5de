package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"block-manifests/internal/types"
)

// Manifest prints the merged index, one kind, or one manifest, optionally
// narrowed by a JSONPath query.
func (s Service) Manifest(ctx context.Context, req ManifestRequest) (ManifestResult, error) {
	p, err := s.open(ctx)
	if err != nil {
		return ManifestResult{}, err
	}
	defer closePipeline(ctx, p)

	index, err := p.cache.Load(ctx)
	if err != nil {
		return ManifestResult{}, err
	}
	document, err := selectManifest(index, strings.TrimSpace(req.Kind), strings.TrimSpace(req.Identity))
	if err != nil {
		return ManifestResult{}, err
	}

	value := types.ObjectValue(document)
	if query := strings.TrimSpace(req.Query); query != "" {
		results, err := s.Query.Query(document, query)
		if err != nil {
			return ManifestResult{}, err
		}
		value = types.Array(results...)
	}
	output, err := encodeValue(value, req.Format)
	if err != nil {
		return ManifestResult{}, err
	}
	return ManifestResult{Output: output}, nil
}

func selectManifest(index *types.ManifestIndex, kind string, identity string) (*types.Object, error) {
	root := index.ToObject()
	if kind == "" {
		return root, nil
	}
	bucket := root.Object(kind)
	if bucket == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no manifests of kind " + kind)
	}
	if single := bucket.Object(kind); single != nil && bucket.Len() == 1 {
		return single, nil
	}
	if identity == "" {
		return bucket, nil
	}
	manifest := bucket.Object(identity)
	if manifest == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no " + kind + " manifest named " + identity)
	}
	return manifest, nil
}
