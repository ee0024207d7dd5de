// Package shared provides the name conversions used across the manifest
// pipeline: component names are kebab-case on disk, camelCase in attribute
// keys and kebab-case again in CSS custom properties.
package shared

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PascalCase upper-cases the first letter of every "-", "_" or space
// separated segment and joins them. Letters inside a segment are kept, so
// "myComponent" becomes "MyComponent".
func PascalCase(value string) string {
	segments := splitWords(value)
	if len(segments) == 0 {
		return ""
	}
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, segment := range segments {
		b.WriteString(caser.String(segment))
	}
	return b.String()
}

// CamelCase is PascalCase with the first letter lowered.
func CamelCase(value string) string {
	return LowerFirst(PascalCase(value))
}

// KebabCase splits camelCase humps and separators into lower-case words
// joined by "-".
func KebabCase(value string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r == '_' || r == ' ' || r == '-':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

func LowerFirst(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if size == 0 {
		return value
	}
	return string(unicode.ToLower(r)) + value[size:]
}

func UpperFirst(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if size == 0 {
		return value
	}
	return string(unicode.ToUpper(r)) + value[size:]
}

func splitWords(value string) []string {
	return strings.FieldsFunc(strings.TrimSpace(value), func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
}
