package core

import (
	"sort"
	"strings"

	"block-manifests/internal/shared"
	"block-manifests/internal/types"
)

const (
	valueToken     = "%value%"
	inversePrefix  = "max-"
	variablePrefix = "--"
)

// Breakpoints reads globalVariables.breakpoints from settings, sorted by
// width and then name. Non-integer widths are ignored.
func Breakpoints(settings *types.Object) []types.Breakpoint {
	raw, _ := settings.Lookup("globalVariables", "breakpoints")
	table, _ := raw.AsObject()

	var out []types.Breakpoint
	table.Each(func(name string, value types.Value) bool {
		if width, ok := value.AsInt(); ok {
			out = append(out, types.Breakpoint{Name: name, Value: width})
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ComputeBuckets derives the mobile-first and desktop-first bucket lists.
// The smallest breakpoint becomes the min default and the largest the max
// default. An empty table yields a lone default bucket per direction.
func ComputeBuckets(breakpoints []types.Breakpoint) types.BucketSet {
	sorted := append([]types.Breakpoint(nil), breakpoints...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	set := types.BucketSet{
		Min: []types.Bucket{{Type: types.BucketMin, Name: types.DefaultBucket}},
		Max: []types.Bucket{{Type: types.BucketMax, Name: types.DefaultBucket}},
	}
	if len(sorted) == 0 {
		return set
	}
	set.MinDefault = sorted[0].Name
	set.MaxDefault = sorted[len(sorted)-1].Name
	for _, bp := range sorted[1:] {
		set.Min = append(set.Min, types.Bucket{Type: types.BucketMin, Name: bp.Name, Value: bp.Value})
	}
	for i := len(sorted) - 2; i >= 0; i-- {
		set.Max = append(set.Max, types.Bucket{Type: types.BucketMax, Name: sorted[i].Name, Value: sorted[i].Value})
	}
	return set
}

// ParseDirectives reads the variables of manifest in declaration order.
// A variable whose name has a responsiveAttributes mapping expands into
// one directive per mapped attribute with breakpoint and direction taken
// from the mapping key.
func ParseDirectives(manifest *types.Object) []types.VariableDirective {
	responsive := manifest.Object("responsiveAttributes")

	var out []types.VariableDirective
	manifest.Object("variables").Each(func(attribute string, raw types.Value) bool {
		base := parseDirective(attribute, raw)
		mapping := responsive.Object(attribute)
		if mapping == nil {
			out = append(out, base)
			return true
		}
		mapping.Each(func(key string, target types.Value) bool {
			name, _ := target.AsString()
			if name == "" {
				return true
			}
			inverse := strings.HasPrefix(key, inversePrefix)
			breakpoint := strings.TrimPrefix(key, inversePrefix)
			if breakpoint == types.DefaultBucket {
				breakpoint = ""
			}
			out = append(out, retarget(base, name, breakpoint, inverse))
			return true
		})
		return true
	})
	return out
}

func parseDirective(attribute string, raw types.Value) types.VariableDirective {
	directive := types.VariableDirective{Attribute: attribute}
	if items, ok := raw.AsArray(); ok {
		directive.Entries = parseEntries(items)
		return directive
	}
	if byValue, ok := raw.AsObject(); ok {
		directive.ByValue = map[string][]types.VariableEntry{}
		byValue.Each(func(value string, entries types.Value) bool {
			items, _ := entries.AsArray()
			directive.ByValue[value] = parseEntries(items)
			return true
		})
	}
	return directive
}

func parseEntries(items []types.Value) []types.VariableEntry {
	out := make([]types.VariableEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.AsObject()
		if !ok {
			continue
		}
		entry := types.VariableEntry{Breakpoint: obj.String("breakpoint")}
		if inverse, ok := obj.Get("inverse"); ok {
			entry.Inverse, _ = inverse.AsBool()
		}
		obj.Object("variable").Each(func(name string, value types.Value) bool {
			entry.Declarations = append(entry.Declarations, types.Declaration{Name: name, Value: value.Text()})
			return true
		})
		out = append(out, entry)
	}
	return out
}

func retarget(base types.VariableDirective, attribute string, breakpoint string, inverse bool) types.VariableDirective {
	force := func(entries []types.VariableEntry) []types.VariableEntry {
		out := make([]types.VariableEntry, len(entries))
		for i, entry := range entries {
			entry.Breakpoint = breakpoint
			entry.Inverse = inverse
			out[i] = entry
		}
		return out
	}
	directive := types.VariableDirective{Attribute: attribute, Entries: force(base.Entries)}
	if base.ByValue != nil {
		directive.ByValue = make(map[string][]types.VariableEntry, len(base.ByValue))
		for value, entries := range base.ByValue {
			directive.ByValue[value] = force(entries)
		}
	}
	return directive
}

// AssignAttribute appends the declarations directive produces for value to
// the matching buckets and returns how many were added. Absent values
// (null, false, empty) add nothing; numeric zero is a value.
func AssignAttribute(set *types.BucketSet, value types.Value, directive types.VariableDirective) int {
	if !value.Renderable() {
		return 0
	}
	entries := directive.Entries
	if directive.ByValue != nil {
		entries = directive.ByValue[value.Text()]
	}

	added := 0
	for _, entry := range entries {
		kind := types.BucketMin
		if entry.Inverse {
			kind = types.BucketMax
		}
		target := entry.Breakpoint
		if target == "" || target == set.DefaultFor(kind) {
			target = types.DefaultBucket
		}
		index, ok := set.Find(kind, target)
		if !ok {
			continue
		}
		for _, declaration := range entry.Declarations {
			set.Append(kind, index, declarationText(declaration, value))
			added++
		}
	}
	return added
}

func declarationText(declaration types.Declaration, value types.Value) string {
	name := shared.KebabCase(strings.TrimPrefix(declaration.Name, variablePrefix))
	text := strings.ReplaceAll(declaration.Value, valueToken, value.Text())
	return variablePrefix + name + ": " + text + ";"
}
