package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ParseCategory mirrors the diagnostic classes of the JSON decoder. It is
// shown to the developer, so it must survive wrapping.
type ParseCategory string

const (
	ParseEmpty           ParseCategory = "empty"
	ParseSyntax          ParseCategory = "syntax"
	ParseEncoding        ParseCategory = "encoding"
	ParseDepth           ParseCategory = "depth"
	ParseRecursion       ParseCategory = "recursion"
	ParseUnsupportedType ParseCategory = "unsupported type"
)

type ParseError struct {
	Category ParseCategory
	Source   string
	Offset   int64
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("manifest parse error (")
	b.WriteString(string(e.Category))
	b.WriteString(")")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error            { return e.Err }
func (e *ParseError) Code() errbuilder.ErrCode { return errbuilder.CodeInvalidArgument }

// MissingManifestKeyError aborts a rebuild: a required manifest is
// structurally broken.
type MissingManifestKeyError struct {
	Key    string
	Parent string
	Kind   ResourceKind
	Source string
}

func (e *MissingManifestKeyError) Error() string {
	key := e.Key
	if e.Parent != "" {
		key = e.Parent + "." + e.Key
	}
	return fmt.Sprintf("missing manifest key %q in %s manifest %s", key, e.Kind, e.Source)
}

func (e *MissingManifestKeyError) Code() errbuilder.ErrCode { return errbuilder.CodeFailedPrecondition }

type ManifestShapeError struct {
	Kind       ResourceKind
	Source     string
	Violations []string
}

func (e *ManifestShapeError) Error() string {
	return fmt.Sprintf("invalid %s manifest %s: %s", e.Kind, e.Source, strings.Join(e.Violations, "; "))
}

func (e *ManifestShapeError) Code() errbuilder.ErrCode { return errbuilder.CodeFailedPrecondition }

type UnknownComponentError struct {
	Parent string
	Name   string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("component %q used by %q does not exist", e.Name, e.Parent)
}

func (e *UnknownComponentError) Code() errbuilder.ErrCode { return errbuilder.CodeNotFound }

type UnknownBlockError struct {
	Name string
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("block %q does not exist", e.Name)
}

func (e *UnknownBlockError) Code() errbuilder.ErrCode { return errbuilder.CodeNotFound }

type UnknownAttributeError struct {
	Key   string
	Owner string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("attribute %q is not declared in %q manifest", e.Key, e.Owner)
}

func (e *UnknownAttributeError) Code() errbuilder.ErrCode { return errbuilder.CodeNotFound }

type InvalidPathError struct {
	Location Location
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("location %q cannot hold manifests", e.Location)
}

func (e *InvalidPathError) Code() errbuilder.ErrCode { return errbuilder.CodeInvalidArgument }

type codedError interface {
	Code() errbuilder.ErrCode
}

// ErrorCode returns the code of a typed domain error anywhere in the chain,
// falling back to errbuilder's own lookup.
func ErrorCode(err error) errbuilder.ErrCode {
	var coded codedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return errbuilder.CodeOf(err)
}
