package types

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Object is a JSON object that remembers key insertion order. Setting an
// existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o *Object) Set(key string, value Value) *Object {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Each visits entries in insertion order until fn returns false.
func (o *Object) Each(fn func(key string, value Value) bool) {
	if o == nil {
		return
	}
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

// Lookup walks nested objects by key path.
func (o *Object) Lookup(path ...string) (Value, bool) {
	current := ObjectValue(o)
	for _, key := range path {
		obj, ok := current.AsObject()
		if !ok {
			return Null(), false
		}
		current, ok = obj.Get(key)
		if !ok {
			return Null(), false
		}
	}
	return current, true
}

// LookupDotted is Lookup with a "a.b.c" path.
func (o *Object) LookupDotted(path string) (Value, bool) {
	if strings.TrimSpace(path) == "" {
		return ObjectValue(o), o != nil
	}
	return o.Lookup(strings.Split(path, ".")...)
}

// String returns the string at key, or "" when absent or not a string.
func (o *Object) String(key string) string {
	v, _ := o.Get(key)
	s, _ := v.AsString()
	return s
}

// Object returns the nested object at key, or nil.
func (o *Object) Object(key string) *Object {
	v, _ := o.Get(key)
	obj, _ := v.AsObject()
	return obj
}

// Merge copies every entry of other into o, other winning on conflicts.
func (o *Object) Merge(other *Object) *Object {
	other.Each(func(key string, value Value) bool {
		o.Set(key, value)
		return true
	})
	return o
}

func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for key, value := range o.values {
		out.values[key] = value.Clone()
	}
	return out
}

func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for _, key := range o.Keys() {
		theirs, ok := other.Get(key)
		if !ok {
			return false
		}
		if !o.values[key].Equal(theirs) {
			return false
		}
	}
	return true
}

func (o *Object) Interface() map[string]any {
	out := make(map[string]any, o.Len())
	o.Each(func(key string, value Value) bool {
		out[key] = value.Interface()
		return true
	})
	return out
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		rawKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(rawKey)
		buf.WriteByte(':')
		rawValue, err := o.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(rawValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
