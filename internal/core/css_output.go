package core

import (
	"context"
	"sort"
	"strconv"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"block-manifests/internal/metrics"
	"block-manifests/internal/ports"
	"block-manifests/internal/shared"
	"block-manifests/internal/types"
)

type StyleStrategy string

const (
	StrategyInline     StyleStrategy = "inline"
	StrategyAggregated StyleStrategy = "aggregated"
)

// StyleRequest describes one rendered instance.
type StyleRequest struct {
	Manifest   *types.Object
	Attributes types.Attributes
	UniqueID   string
	// Selector overrides the class-derived selector when set.
	Selector string
}

// ResponsiveGenerator turns attribute values and variable directives into
// breakpoint-scoped custom properties. With outputCssGlobally set in
// settings the result is deferred to the collector and emitted by
// Aggregate; otherwise it is returned immediately.
type ResponsiveGenerator struct {
	source    ports.ManifestSourcePort
	collector ports.StyleCollectorPort
}

func NewResponsiveGenerator(source ports.ManifestSourcePort, collector ports.StyleCollectorPort) *ResponsiveGenerator {
	return &ResponsiveGenerator{source: source, collector: collector}
}

// Strategy returns the emission strategy selected by settings.
func (g *ResponsiveGenerator) Strategy(ctx context.Context) (StyleStrategy, error) {
	settings, err := g.source.Settings(ctx)
	if err != nil {
		return "", err
	}
	if configFlag(settings, ConfigOutputCSSGlobally) && g.collector != nil {
		return StrategyAggregated, nil
	}
	return StrategyInline, nil
}

// Buckets computes the bucket assignment for one instance.
func (g *ResponsiveGenerator) Buckets(ctx context.Context, req StyleRequest) (types.BucketSet, error) {
	settings, err := g.source.Settings(ctx)
	if err != nil {
		return types.BucketSet{}, err
	}
	set := ComputeBuckets(Breakpoints(settings))
	for _, directive := range ParseDirectives(req.Manifest) {
		value, found, err := ResolveValue(directive.Attribute, req.Attributes, req.Manifest, true)
		if err != nil {
			return types.BucketSet{}, err
		}
		if !found {
			continue
		}
		AssignAttribute(&set, value, directive)
	}
	return set, nil
}

// Generate builds the styles of one instance. Instances without any
// declaration produce an empty output under both strategies.
func (g *ResponsiveGenerator) Generate(ctx context.Context, req StyleRequest) (types.StyleOutput, error) {
	settings, err := g.source.Settings(ctx)
	if err != nil {
		return types.StyleOutput{}, err
	}
	set, err := g.Buckets(ctx, req)
	if err != nil {
		return types.StyleOutput{}, err
	}
	selector := req.Selector
	if selector == "" {
		selector = Selector(ctx, settings, req.Manifest, req.Attributes, req.UniqueID)
	}
	record := NewStyleRecord(selector, req.UniqueID, set, CustomDeclarations(req.Manifest))
	if len(record.Declarations) == 0 && len(record.Manual) == 0 {
		return types.StyleOutput{}, nil
	}

	strategy, err := g.Strategy(ctx)
	if err != nil {
		return types.StyleOutput{}, err
	}
	metrics.RecordStyle(string(strategy))
	if strategy == StrategyAggregated {
		g.collector.Append(record)
		log.Ctx(ctx).Debug().Str("selector", selector).Msg("styles deferred to aggregation")
		return types.StyleOutput{Deferred: true}, nil
	}
	return types.StyleOutput{CSS: RenderCSS([]types.StyleRecord{record}, OutputOptimized(settings))}, nil
}

// Aggregate flushes the collector and renders every deferred record as a
// single style element. It returns "" when nothing was collected.
func (g *ResponsiveGenerator) Aggregate(ctx context.Context) (string, error) {
	if g.collector == nil || g.collector.Len() == 0 {
		return "", nil
	}
	settings, err := g.source.Settings(ctx)
	if err != nil {
		return "", err
	}
	records := g.collector.Flush()
	css := RenderCSS(records, OutputOptimized(settings))
	log.Ctx(ctx).Debug().Int("records", len(records)).Msg("styles aggregated")
	return StyleTag(configString(settings, ConfigOutputCSSSelectorName, DefaultSelectorName), css), nil
}

// Selector is ".{class}[data-id='{uniqueID}']" where class is the
// component class, else the block class.
func Selector(ctx context.Context, settings *types.Object, manifest *types.Object, attrs types.Attributes, uniqueID string) string {
	class := attrs["componentClass"].Text()
	if class == "" {
		class = manifest.String("componentClass")
	}
	if class == "" {
		class = attrs["blockClass"].Text()
	}
	if class == "" {
		if name := manifest.String("blockName"); name != "" {
			prefix := settings.String("blockClassPrefix")
			if prefix == "" {
				prefix = DefaultBlockClassPrefix
			}
			class = prefix + "-" + name
		} else {
			class = manifestName(manifest)
		}
	}
	assert.NotEmpty(ctx, class, "selector class must resolve")

	selector := "." + class
	if uniqueID != "" {
		selector += "[data-id='" + uniqueID + "']"
	}
	return selector
}

// CustomDeclarations returns variablesCustom, the declarations emitted
// unconditionally after the bucketed ones.
func CustomDeclarations(manifest *types.Object) []string {
	raw, _ := manifest.Get("variablesCustom")
	items, _ := raw.AsArray()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := strings.TrimSpace(item.Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// NewStyleRecord flattens a bucket assignment into the record form both
// strategies render from.
func NewStyleRecord(selector string, uniqueID string, set types.BucketSet, manual []string) types.StyleRecord {
	record := types.StyleRecord{Selector: selector, UniqueID: uniqueID, Manual: manual}
	for _, bucket := range set.Ordered() {
		for _, text := range bucket.Declarations {
			record.Declarations = append(record.Declarations, types.StyleDeclaration{
				Type:  bucket.Type,
				Name:  bucket.Name,
				Value: bucket.Value,
				Text:  text,
			})
		}
	}
	return record
}

type styleGroup struct {
	kind   types.BucketType
	name   string
	value  int
	blocks []string
}

// RenderCSS groups declarations of all records by bucket and emits one
// rule block per record inside each group: min buckets from default
// upwards, then max buckets from default downwards, then the manual
// blocks. A single record renders the same text either way.
func RenderCSS(records []types.StyleRecord, optimize bool) string {
	groups := map[string]*styleGroup{}
	var order []*styleGroup
	for _, record := range records {
		perGroup := map[*styleGroup][]string{}
		var touched []*styleGroup
		for _, decl := range record.Declarations {
			key := string(decl.Type) + "/" + decl.Name
			group, ok := groups[key]
			if !ok {
				group = &styleGroup{kind: decl.Type, name: decl.Name, value: decl.Value}
				groups[key] = group
				order = append(order, group)
			}
			if _, seen := perGroup[group]; !seen {
				touched = append(touched, group)
			}
			perGroup[group] = append(perGroup[group], decl.Text)
		}
		for _, group := range touched {
			group.blocks = append(group.blocks, ruleBlock(record.Selector, perGroup[group]))
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return groupLess(order[i], order[j]) })

	var b strings.Builder
	for _, group := range order {
		if group.name == types.DefaultBucket {
			for _, block := range group.blocks {
				b.WriteString(block)
			}
			continue
		}
		b.WriteString("@media (")
		b.WriteString(string(group.kind))
		b.WriteString("-width: ")
		b.WriteString(strconv.Itoa(group.value))
		b.WriteString("px){\n")
		for _, block := range group.blocks {
			b.WriteString(block)
		}
		b.WriteString("}\n")
	}
	for _, record := range records {
		if len(record.Manual) > 0 {
			b.WriteString(ruleBlock(record.Selector, record.Manual))
		}
	}

	css := b.String()
	if optimize {
		css = strings.ReplaceAll(css, "\n", "")
	}
	return css
}

func groupLess(a, b *styleGroup) bool {
	if a.kind != b.kind {
		return a.kind == types.BucketMin
	}
	aDefault, bDefault := a.name == types.DefaultBucket, b.name == types.DefaultBucket
	if aDefault != bDefault {
		return aDefault
	}
	if a.value != b.value {
		if a.kind == types.BucketMax {
			return a.value > b.value
		}
		return a.value < b.value
	}
	return a.name < b.name
}

func ruleBlock(selector string, declarations []string) string {
	return selector + "{\n" + strings.Join(declarations, "\n") + "\n}\n"
}

// OutputOptimized reports whether settings ask for newline-free CSS.
func OutputOptimized(settings *types.Object) bool {
	return configFlag(settings, ConfigOutputCSSOptimize)
}

// StyleTag wraps css in a style element. id is omitted when empty.
func StyleTag(id string, css string) string {
	if id == "" {
		return "<style>" + css + "</style>"
	}
	return `<style id="` + id + `">` + css + "</style>"
}

// GlobalVariablesCSS renders settings.globalVariables as :root custom
// properties. Lists of {slug, color} objects render one property per slug.
func GlobalVariablesCSS(settings *types.Object, optimize bool) string {
	globals := settings.Object("globalVariables")
	if globals.Len() == 0 {
		return ""
	}
	var lines []string
	collectGlobals(globals, []string{"global"}, &lines)
	if len(lines) == 0 {
		return ""
	}
	css := ruleBlock(":root", lines)
	if optimize {
		css = strings.ReplaceAll(css, "\n", "")
	}
	return css
}

func collectGlobals(obj *types.Object, path []string, lines *[]string) {
	obj.Each(func(key string, value types.Value) bool {
		next := append(path[:len(path):len(path)], shared.KebabCase(key))
		switch value.Kind() {
		case types.KindObject:
			child, _ := value.AsObject()
			collectGlobals(child, next, lines)
		case types.KindArray:
			items, _ := value.AsArray()
			for _, item := range items {
				entry, ok := item.AsObject()
				if !ok {
					continue
				}
				slug, color := entry.String("slug"), entry.String("color")
				if slug == "" || color == "" {
					continue
				}
				*lines = append(*lines, variablePrefix+strings.Join(next, "-")+"-"+shared.KebabCase(slug)+": "+color+";")
			}
		case types.KindNull:
		default:
			*lines = append(*lines, variablePrefix+strings.Join(next, "-")+": "+value.Text()+";")
		}
		return true
	})
}
