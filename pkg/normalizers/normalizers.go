// Package normalizers provides the text normalization used by matching and
// duplicate detection. Every function is pure and total: bad input degrades
// to identity or empty output, never to an error.
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value.
type Normalizer func(string) string

// registry holds all registered normalizers.
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("canonical", Canonical)
	Register("alphanumeric", Alphanumeric)
	Register("remove_whitespace", RemoveWhitespace)
	Register("state", NormalizeState)
	Register("typos", CorrectTypos)
	Register("abbreviations", ExpandAbbreviations)
}

// Register adds a normalizer to the registry.
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name.
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names are identity.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence.
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase.
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase.
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Canonical produces the canonical text form that exact matching is defined
// over: trimmed, uppercased, inner whitespace collapsed to single spaces.
func Canonical(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(unicode.ToUpper(r))
		prevSpace = false
	}
	return result.String()
}

// RemoveWhitespace removes all whitespace characters.
func RemoveWhitespace(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only letters and digits, lowercased. This is the
// pre-normalization the similarity scorer applies to both operands.
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return result.String()
}
