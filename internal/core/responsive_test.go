package core

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"block-manifests/internal/types"
)

func bucketNames(buckets []types.Bucket) []string {
	out := make([]string, len(buckets))
	for i, bucket := range buckets {
		out[i] = fmt.Sprintf("%s/%d", bucket.Name, bucket.Value)
	}
	return out
}

func TestComputeBucketsExample(t *testing.T) {
	set := ComputeBuckets([]types.Breakpoint{
		{Name: "desktop", Value: 1024},
		{Name: "mobile", Value: 0},
		{Name: "tablet", Value: 768},
	})

	assert.Equal(t, []string{"default/0", "tablet/768", "desktop/1024"}, bucketNames(set.Min))
	assert.Equal(t, []string{"default/0", "tablet/768", "mobile/0"}, bucketNames(set.Max))
	assert.Equal(t, "mobile", set.MinDefault)
	assert.Equal(t, "desktop", set.MaxDefault)
	for _, bucket := range set.Min {
		assert.Equal(t, types.BucketMin, bucket.Type)
	}
	for _, bucket := range set.Max {
		assert.Equal(t, types.BucketMax, bucket.Type)
	}
}

func TestComputeBucketsOneDefaultPerDirection(t *testing.T) {
	names := []string{"xs", "sm", "md", "lg", "xl", "xxl"}
	for n := 1; n <= len(names); n++ {
		t.Run(fmt.Sprintf("%d breakpoints", n), func(t *testing.T) {
			var table []types.Breakpoint
			for i := 0; i < n; i++ {
				// Insert in reverse so sorting is exercised.
				table = append(table, types.Breakpoint{Name: names[n-1-i], Value: (n - i) * 320})
			}
			set := ComputeBuckets(table)
			require.Len(t, set.Min, n)
			require.Len(t, set.Max, n)

			for _, list := range [][]types.Bucket{set.Min, set.Max} {
				defaults := 0
				for _, bucket := range list {
					if bucket.IsDefault() {
						defaults++
						assert.Equal(t, 0, bucket.Value)
						continue
					}
					assert.Contains(t, names[:n], bucket.Name)
				}
				assert.Equal(t, 1, defaults)
			}
			for i := 2; i < len(set.Min); i++ {
				assert.Less(t, set.Min[i-1].Value, set.Min[i].Value)
			}
			for i := 2; i < len(set.Max); i++ {
				assert.Greater(t, set.Max[i-1].Value, set.Max[i].Value)
			}
		})
	}
}

func TestComputeBucketsEmpty(t *testing.T) {
	set := ComputeBuckets(nil)
	assert.Equal(t, []string{"default/0"}, bucketNames(set.Min))
	assert.Equal(t, []string{"default/0"}, bucketNames(set.Max))
}

func TestBreakpointsFromSettings(t *testing.T) {
	settings := manifestOf(t, `{"globalVariables":{"breakpoints":{"large":1200,"desktop":1024,"mobile":480,"bogus":"wide","tablet":768}}}`)
	assert.Equal(t, []types.Breakpoint{
		{Name: "mobile", Value: 480},
		{Name: "tablet", Value: 768},
		{Name: "desktop", Value: 1024},
		{Name: "large", Value: 1200},
	}, Breakpoints(settings))

	assert.Empty(t, Breakpoints(manifestOf(t, `{"namespace":"ns"}`)))
}

func TestParseDirectives(t *testing.T) {
	manifest := manifestOf(t, `{
		"variables": {
			"cardWidth": [
				{"variable": {"card-width": "%value%px"}},
				{"breakpoint": "tablet", "inverse": true, "variable": {"cardWidthMax": "%value%", "card-gap": "0"}}
			],
			"cardAlign": {
				"left": [{"variable": {"card-justify": "flex-start"}}],
				"right": [{"breakpoint": "desktop", "variable": {"card-justify": "flex-end"}}]
			},
			"cardSpacing": [{"breakpoint": "desktop", "variable": {"card-spacing": "%value%"}}]
		},
		"responsiveAttributes": {
			"cardSpacing": {"default": "cardSpacing", "tablet": "cardSpacingTablet", "max-mobile": "cardSpacingMaxMobile"}
		}
	}`)

	want := []types.VariableDirective{
		{
			Attribute: "cardWidth",
			Entries: []types.VariableEntry{
				{Declarations: []types.Declaration{{Name: "card-width", Value: "%value%px"}}},
				{Breakpoint: "tablet", Inverse: true, Declarations: []types.Declaration{
					{Name: "cardWidthMax", Value: "%value%"},
					{Name: "card-gap", Value: "0"},
				}},
			},
		},
		{
			Attribute: "cardAlign",
			ByValue: map[string][]types.VariableEntry{
				"left":  {{Declarations: []types.Declaration{{Name: "card-justify", Value: "flex-start"}}}},
				"right": {{Breakpoint: "desktop", Declarations: []types.Declaration{{Name: "card-justify", Value: "flex-end"}}}},
			},
		},
		{
			Attribute: "cardSpacing",
			Entries:   []types.VariableEntry{{Declarations: []types.Declaration{{Name: "card-spacing", Value: "%value%"}}}},
		},
		{
			Attribute: "cardSpacingTablet",
			Entries:   []types.VariableEntry{{Breakpoint: "tablet", Declarations: []types.Declaration{{Name: "card-spacing", Value: "%value%"}}}},
		},
		{
			Attribute: "cardSpacingMaxMobile",
			Entries:   []types.VariableEntry{{Breakpoint: "mobile", Inverse: true, Declarations: []types.Declaration{{Name: "card-spacing", Value: "%value%"}}}},
		},
	}
	if diff := cmp.Diff(want, ParseDirectives(manifest)); diff != "" {
		t.Fatalf("directives mismatch (-want +got):\n%s", diff)
	}
}

func testBuckets() types.BucketSet {
	return ComputeBuckets([]types.Breakpoint{
		{Name: "mobile", Value: 480},
		{Name: "tablet", Value: 768},
		{Name: "desktop", Value: 1024},
	})
}

func TestAssignAttributeTargets(t *testing.T) {
	directive := types.VariableDirective{
		Attribute: "cardWidth",
		Entries: []types.VariableEntry{
			{Declarations: []types.Declaration{{Name: "cardWidth", Value: "%value%px"}}},
			{Breakpoint: "mobile", Declarations: []types.Declaration{{Name: "card-min", Value: "a"}}},
			{Breakpoint: "tablet", Declarations: []types.Declaration{{Name: "card-min", Value: "b"}}},
			{Breakpoint: "desktop", Inverse: true, Declarations: []types.Declaration{{Name: "card-max", Value: "c"}}},
			{Breakpoint: "mobile", Inverse: true, Declarations: []types.Declaration{{Name: "card-max", Value: "d"}}},
			{Breakpoint: "unknown", Declarations: []types.Declaration{{Name: "card-lost", Value: "e"}}},
		},
	}
	set := testBuckets()
	added := AssignAttribute(&set, types.Number(320), directive)
	assert.Equal(t, 5, added)

	assert.Equal(t, []string{"--card-width: 320px;", "--card-min: a;"}, set.Min[0].Declarations, "mobile is the min default")
	assert.Equal(t, []string{"--card-min: b;"}, set.Min[1].Declarations)
	assert.Empty(t, set.Min[2].Declarations)
	assert.Equal(t, []string{"--card-max: c;"}, set.Max[0].Declarations, "desktop is the max default")
	assert.Empty(t, set.Max[1].Declarations)
	assert.Equal(t, []string{"--card-max: d;"}, set.Max[2].Declarations)
}

func TestAssignAttributeRenderableValues(t *testing.T) {
	directive := types.VariableDirective{
		Attribute: "cardGap",
		Entries:   []types.VariableEntry{{Declarations: []types.Declaration{{Name: "card-gap", Value: "%value%"}}}},
	}
	tests := []struct {
		name  string
		value types.Value
		want  []string
	}{
		{"zero is a value", types.Number(0), []string{"--card-gap: 0;"}},
		{"string", types.String("2rem"), []string{"--card-gap: 2rem;"}},
		{"true", types.Bool(true), []string{"--card-gap: true;"}},
		{"false is absent", types.Bool(false), nil},
		{"empty string is absent", types.String(""), nil},
		{"null is absent", types.Null(), nil},
		{"empty array is absent", types.Array(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := testBuckets()
			AssignAttribute(&set, tt.value, directive)
			assert.Equal(t, tt.want, set.Min[0].Declarations)
		})
	}
}

func TestAssignAttributeByValue(t *testing.T) {
	directive := types.VariableDirective{
		Attribute: "cardSize",
		ByValue: map[string][]types.VariableEntry{
			"0":   {{Declarations: []types.Declaration{{Name: "card-size", Value: "none"}}}},
			"big": {{Breakpoint: "tablet", Declarations: []types.Declaration{{Name: "card-size", Value: "%value%"}}}},
		},
	}

	set := testBuckets()
	AssignAttribute(&set, types.Number(0), directive)
	assert.Equal(t, []string{"--card-size: none;"}, set.Min[0].Declarations)

	set = testBuckets()
	AssignAttribute(&set, types.String("big"), directive)
	assert.Equal(t, []string{"--card-size: big;"}, set.Min[1].Declarations)

	set = testBuckets()
	assert.Equal(t, 0, AssignAttribute(&set, types.String("small"), directive))
}
