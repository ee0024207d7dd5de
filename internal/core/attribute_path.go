package core

import (
	"strings"

	"block-manifests/internal/shared"
)

// AttributePath is the chain of PascalCase names an attribute is mounted
// under. Keys are built from it instead of by splicing strings, so a
// segment is never prefixed twice.
type AttributePath []string

func NewAttributePath(names ...string) AttributePath {
	var path AttributePath
	for _, name := range names {
		path = path.Append(name)
	}
	return path
}

// Append returns a new path with name added as a PascalCase segment.
// Empty names are ignored.
func (p AttributePath) Append(name string) AttributePath {
	segment := shared.PascalCase(name)
	if segment == "" {
		return p
	}
	out := make(AttributePath, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment)
}

// Prefix is the camelCase form of the whole path, the value carried in
// the "prefix" runtime attribute.
func (p AttributePath) Prefix() string {
	return shared.LowerFirst(strings.Join(p, ""))
}

// Key mounts a local attribute suffix under the path.
func (p AttributePath) Key(suffix string) string {
	return shared.LowerFirst(strings.Join(p, "") + shared.PascalCase(suffix))
}

// localSuffix strips a component's own camelCase name from the front of an
// attribute key: "typographyContent" under "typography" is "Content". Keys
// without that prefix are returned whole.
func localSuffix(key string, ownName string) string {
	if ownName == "" || !strings.HasPrefix(key, ownName) || len(key) == len(ownName) {
		return key
	}
	return key[len(ownName):]
}

// mountKey rewrites one attribute key of a component mounted at path.
// wrapper keys are global and pass through.
func mountKey(key string, ownName string, path AttributePath) string {
	if strings.HasPrefix(key, wrapperPrefix) || len(path) == 0 {
		return key
	}
	return path.Key(localSuffix(key, ownName))
}

// prefixedKey rewrites key for a runtime prefix string, the same rule as
// mountKey with the path already flattened.
func prefixedKey(key string, ownName string, prefix string) string {
	return shared.LowerFirst(prefix + shared.PascalCase(localSuffix(key, ownName)))
}
