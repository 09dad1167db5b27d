// Package normalizers provides name normalization used to build entity match keys
package normalizers

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var registry = map[string]Normalizer{
	"lowercase":          Lowercase,
	"trim":               Trim,
	"collapse":           CollapseWhitespace,
	"nname":              NormalizeName,
	"nemail":             NormalizeEmail,
	"nphone":             DigitsOnly,
	"remove_punctuation": RemovePunctuation,
	"alphanumeric":       Alphanumeric,
}

// DefaultChain is applied to entity types without a configured chain
var DefaultChain = []string{"trim", "lowercase", "remove_punctuation", "collapse"}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered normalizer names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyChain applies the named normalizers in order. Unknown names are skipped.
func ApplyChain(value string, chain ...string) string {
	for _, name := range chain {
		if fn, ok := registry[name]; ok {
			value = fn(value)
		}
	}
	return value
}

// TypeChains maps lower-cased entity types to normalizer chains
type TypeChains map[string][]string

// ParseTypeChains parses entries like "person=trim|nname". Every named normalizer must exist.
func ParseTypeChains(entries []string) (TypeChains, error) {
	chains := TypeChains{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		typ, chain, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(typ) == "" {
			return nil, fmt.Errorf("invalid normalizer entry %q, expected type=name|name", entry)
		}
		var names []string
		for _, name := range strings.Split(chain, "|") {
			name = strings.TrimSpace(name)
			if _, ok := registry[name]; !ok {
				return nil, fmt.Errorf("unknown normalizer %q for type %q", name, typ)
			}
			names = append(names, name)
		}
		chains[strings.ToLower(strings.TrimSpace(typ))] = names
	}
	return chains, nil
}

// Normalize applies the chain configured for entityType, falling back to DefaultChain
func (tc TypeChains) Normalize(entityType, value string) string {
	chain, ok := tc[strings.ToLower(entityType)]
	if !ok {
		chain = DefaultChain
	}
	return ApplyChain(value, chain...)
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces runs of whitespace with one space and trims the ends
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	return keep(s, unicode.IsDigit)
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	return keep(s, func(r rune) bool { return !unicode.IsPunct(r) })
}

// Alphanumeric keeps only letters and digits
func Alphanumeric(s string) string {
	return keep(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
}

var nameSuffixes = []string{" jr.", " jr", " sr.", " sr", " iii", " ii", " iv", " phd", " md"}

// NormalizeName lowercases a person's name, strips common suffixes and punctuation, and collapses spaces
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
			break
		}
	}
	s = keep(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) })
	return CollapseWhitespace(s)
}

func keep(s string, fn func(rune) bool) string {
	var b strings.Builder
	for _, r := range s {
		if fn(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
