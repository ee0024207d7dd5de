// Package testutil provides shared test helpers used across integration
// and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteFiles writes slash-separated relative paths under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// FixtureProject writes ProjectFiles into a fresh temp dir and returns it.
func FixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, ProjectFiles())
	return root
}

// ProjectFiles returns a small block project: settings with three
// breakpoints, a wrapper, two blocks, two components (heading nests
// typography as "content") and one variation.
func ProjectFiles() map[string]string {
	return map[string]string{
		"src/Blocks/manifest.json": `{
	"namespace": "eightshift",
	"blockClassPrefix": "block",
	"globalVariables": {
		"breakpoints": {"desktop": 1024, "mobile": 480, "tablet": 768},
		"colors": [
			{"name": "Primary", "slug": "primary", "color": "#111111"},
			{"name": "Accent", "slug": "accent", "color": "#ff0000"}
		],
		"fontSize": "16px"
	},
	"config": {"outputCssSelectorName": "esCssVariables"}
}`,
		"src/Blocks/wrapper/manifest.json": `{
	"attributes": {
		"wrapperUse": {"type": "boolean", "default": true},
		"wrapperSpacingTop": {"type": "string"}
	}
}`,
		"src/Blocks/custom/button/manifest.json": `{
	"blockName": "button",
	"attributes": {
		"buttonAlign": {"type": "string", "default": "left"},
		"buttonSize": {"type": "number"},
		"buttonItems": {"type": "array"}
	},
	"variables": {
		"buttonAlign": [
			{"variable": {"button-align": "%value%"}}
		],
		"buttonSize": {
			"0": [{"variable": {"button-size": "none"}}],
			"2": [{"breakpoint": "tablet", "variable": {"button-size": "large"}}]
		}
	},
	"variablesCustom": ["--button-custom: 1;"]
}`,
		"src/Blocks/custom/heading/manifest.json": `{
	"blockName": "heading",
	"components": {"heading": "heading"},
	"attributes": {}
}`,
		"src/Blocks/components/heading/manifest.json": `{
	"componentName": "heading",
	"componentClass": "heading",
	"components": {"content": "typography"},
	"attributes": {
		"headingAlign": {"type": "string", "default": "left"},
		"headingAlignTablet": {"type": "string"},
		"headingAlignMaxMobile": {"type": "string"},
		"headingUse": {"type": "boolean", "default": true}
	},
	"responsiveAttributes": {
		"headingAlign": {
			"default": "headingAlign",
			"tablet": "headingAlignTablet",
			"max-mobile": "headingAlignMaxMobile"
		}
	},
	"variables": {
		"headingAlign": [
			{"variable": {"heading-align": "%value%"}}
		]
	}
}`,
		"src/Blocks/components/typography/manifest.json": `{
	"componentName": "typography",
	"componentClass": "typography",
	"attributes": {
		"typographyContent": {"type": "string"},
		"typographySize": {"type": "string", "default": "default"},
		"typographyUse": {"type": "boolean", "default": true}
	},
	"variables": {
		"typographySize": {
			"big": [{"variable": {"typography-font-size": "2rem"}}]
		}
	}
}`,
		"src/Blocks/variations/button-primary/manifest.json": `{
	"name": "button-primary",
	"parentName": "button",
	"attributes": {"buttonAlign": {"type": "string", "default": "center"}}
}`,
	}
}
