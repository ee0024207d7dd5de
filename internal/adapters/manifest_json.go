package adapters

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"block-manifests/internal/ports"
	"block-manifests/internal/types"
)

// DefaultMaxDepth is the deepest nesting a manifest may use.
const DefaultMaxDepth = 512

// JSONManifestCodec decodes manifest documents into ordered objects and
// encodes them back with stable key order.
type JSONManifestCodec struct {
	MaxDepth int
	Indent   string
}

func NewJSONManifestCodec() JSONManifestCodec {
	return JSONManifestCodec{MaxDepth: DefaultMaxDepth, Indent: "  "}
}

func (c JSONManifestCodec) Decode(data []byte) (*types.Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &types.ParseError{Category: types.ParseEmpty, Err: errors.New("document is empty")}
	}
	if !utf8.Valid(data) {
		return nil, &types.ParseError{Category: types.ParseEncoding, Err: errors.New("malformed UTF-8 characters")}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := c.decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &types.ParseError{
			Category: types.ParseSyntax,
			Offset:   dec.InputOffset(),
			Err:      errors.New("unexpected data after top-level value"),
		}
	}
	obj, ok := root.AsObject()
	if !ok {
		return nil, &types.ParseError{
			Category: types.ParseUnsupportedType,
			Err:      fmt.Errorf("manifest must be an object, got %s", root.Kind()),
		}
	}
	return obj, nil
}

func (c JSONManifestCodec) decodeValue(dec *json.Decoder, depth int) (types.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return types.Null(), syntaxError(dec, err)
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth+1 > c.maxDepth() {
			return types.Null(), &types.ParseError{
				Category: types.ParseDepth,
				Offset:   dec.InputOffset(),
				Err:      fmt.Errorf("maximum stack depth %d exceeded", c.maxDepth()),
			}
		}
		switch t {
		case '{':
			return c.decodeObject(dec, depth+1)
		case '[':
			return c.decodeArray(dec, depth+1)
		default:
			return types.Null(), &types.ParseError{
				Category: types.ParseSyntax,
				Offset:   dec.InputOffset(),
				Err:      fmt.Errorf("unexpected delimiter %q", t),
			}
		}
	case bool:
		return types.Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return types.Null(), &types.ParseError{
				Category: types.ParseUnsupportedType,
				Offset:   dec.InputOffset(),
				Err:      fmt.Errorf("number %s out of range", t.String()),
			}
		}
		return types.Number(f), nil
	case string:
		return types.String(t), nil
	case nil:
		return types.Null(), nil
	default:
		return types.Null(), &types.ParseError{
			Category: types.ParseUnsupportedType,
			Offset:   dec.InputOffset(),
			Err:      fmt.Errorf("unsupported token %T", tok),
		}
	}
}

func (c JSONManifestCodec) decodeObject(dec *json.Decoder, depth int) (types.Value, error) {
	obj := types.NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return types.Null(), syntaxError(dec, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return types.Null(), &types.ParseError{
				Category: types.ParseSyntax,
				Offset:   dec.InputOffset(),
				Err:      errors.New("object key must be a string"),
			}
		}
		value, err := c.decodeValue(dec, depth)
		if err != nil {
			return types.Null(), err
		}
		obj.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return types.Null(), syntaxError(dec, err)
	}
	return types.ObjectValue(obj), nil
}

func (c JSONManifestCodec) decodeArray(dec *json.Decoder, depth int) (types.Value, error) {
	items := []types.Value{}
	for dec.More() {
		value, err := c.decodeValue(dec, depth)
		if err != nil {
			return types.Null(), err
		}
		items = append(items, value)
	}
	if _, err := dec.Token(); err != nil {
		return types.Null(), syntaxError(dec, err)
	}
	return types.Array(items...), nil
}

// Encode renders the manifest with its key order preserved. Cycles,
// non-finite numbers and over-deep trees are rejected before any output
// is produced.
func (c JSONManifestCodec) Encode(manifest *types.Object) ([]byte, error) {
	if manifest == nil {
		return nil, &types.ParseError{Category: types.ParseUnsupportedType, Err: errors.New("manifest is nil")}
	}
	if err := c.checkEncodable(types.ObjectValue(manifest), 1, map[*types.Object]struct{}{}); err != nil {
		return nil, err
	}
	raw, err := manifest.MarshalJSON()
	if err != nil {
		return nil, &types.ParseError{Category: types.ParseUnsupportedType, Err: err}
	}
	if c.Indent == "" {
		return raw, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", c.Indent); err != nil {
		return nil, &types.ParseError{Category: types.ParseSyntax, Err: err}
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (c JSONManifestCodec) checkEncodable(value types.Value, depth int, visiting map[*types.Object]struct{}) error {
	if depth > c.maxDepth() {
		return &types.ParseError{
			Category: types.ParseDepth,
			Err:      fmt.Errorf("maximum stack depth %d exceeded", c.maxDepth()),
		}
	}
	switch value.Kind() {
	case types.KindNumber:
		n, _ := value.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return &types.ParseError{
				Category: types.ParseUnsupportedType,
				Err:      errors.New("inf and NaN cannot be encoded"),
			}
		}
	case types.KindArray:
		items, _ := value.AsArray()
		for _, item := range items {
			if err := c.checkEncodable(item, depth+1, visiting); err != nil {
				return err
			}
		}
	case types.KindObject:
		obj, _ := value.AsObject()
		if _, seen := visiting[obj]; seen {
			return &types.ParseError{
				Category: types.ParseRecursion,
				Err:      errors.New("recursive reference detected"),
			}
		}
		visiting[obj] = struct{}{}
		var err error
		obj.Each(func(_ string, child types.Value) bool {
			err = c.checkEncodable(child, depth+1, visiting)
			return err == nil
		})
		delete(visiting, obj)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c JSONManifestCodec) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func syntaxError(dec *json.Decoder, err error) error {
	var parseErr *types.ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &types.ParseError{
		Category: types.ParseSyntax,
		Offset:   dec.InputOffset(),
		Err:      err,
	}
}

var _ ports.ManifestCodecPort = JSONManifestCodec{}
