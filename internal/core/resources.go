package core

import "block-manifests/internal/types"

// Config keys in the settings manifest.
const (
	ConfigOutputCSSGlobally     = "outputCssGlobally"
	ConfigOutputCSSOptimize     = "outputCssOptimize"
	ConfigOutputCSSSelectorName = "outputCssSelectorName"
	ConfigUseWrapper            = "useWrapper"
	ConfigUseComponents         = "useComponents"
	ConfigUseBlocks             = "useBlocks"
	ConfigUseVariations         = "useVariations"
)

const (
	DefaultBlockClassPrefix = "block"
	DefaultSelectorName     = "esCssVariables"
	manifestFile            = "manifest.json"
)

func emptyAttributes() types.AutosetRule {
	return types.AutosetRule{Key: "attributes", Value: types.ObjectValue(types.NewObject())}
}

// DefaultResources returns the declared manifest kinds in rebuild order.
// Settings comes first so its namespace is known when blocks are read.
func DefaultResources() []types.ResourceDefinition {
	return []types.ResourceDefinition{
		{
			Kind:         types.ResourceSettings,
			Cardinality:  types.CardinalitySingle,
			Location:     types.LocationBlocks,
			Pattern:      manifestFile,
			RequiredKeys: []string{"namespace"},
			Required:     true,
			Autoset: []types.AutosetRule{
				{Key: "blockClassPrefix", Value: types.String(DefaultBlockClassPrefix)},
				{Key: "globalVariables", Value: types.ObjectValue(types.NewObject())},
				{Parent: "config", Key: ConfigOutputCSSGlobally, Value: types.Bool(false)},
				{Parent: "config", Key: ConfigOutputCSSOptimize, Value: types.Bool(false)},
				{Parent: "config", Key: ConfigOutputCSSSelectorName, Value: types.String(DefaultSelectorName)},
				{Parent: "config", Key: ConfigUseWrapper, Value: types.Bool(true)},
				{Parent: "config", Key: ConfigUseComponents, Value: types.Bool(true)},
				{Parent: "config", Key: ConfigUseBlocks, Value: types.Bool(true)},
				{Parent: "config", Key: ConfigUseVariations, Value: types.Bool(true)},
			},
		},
		{
			Kind:        types.ResourceWrapper,
			Cardinality: types.CardinalitySingle,
			Location:    types.LocationWrapper,
			Pattern:     manifestFile,
			Autoset:     []types.AutosetRule{emptyAttributes()},
			Toggle:      ConfigUseWrapper,
		},
		{
			Kind:         types.ResourceBlocks,
			Cardinality:  types.CardinalityMultiple,
			Location:     types.LocationBlocksCustom,
			Pattern:      "*/" + manifestFile,
			Identity:     "blockName",
			RequiredKeys: []string{"blockName"},
			Autoset:      []types.AutosetRule{emptyAttributes()},
			Toggle:       ConfigUseBlocks,
		},
		{
			Kind:         types.ResourceComponents,
			Cardinality:  types.CardinalityMultiple,
			Location:     types.LocationComponents,
			Pattern:      "*/" + manifestFile,
			Identity:     "componentName",
			RequiredKeys: []string{"componentName"},
			Autoset:      []types.AutosetRule{emptyAttributes()},
			Toggle:       ConfigUseComponents,
		},
		{
			Kind:         types.ResourceVariations,
			Cardinality:  types.CardinalityMultiple,
			Location:     types.LocationVariations,
			Pattern:      "*/" + manifestFile,
			Identity:     "name",
			RequiredKeys: []string{"name", "parentName"},
			Autoset:      []types.AutosetRule{emptyAttributes()},
			Toggle:       ConfigUseVariations,
		},
	}
}
