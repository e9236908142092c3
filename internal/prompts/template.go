package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/vileikis/clementine/internal/preset"
)

// referencePattern matches every reference token: @{text:name}, @{input:name}, @{ref:name}.
// Anything else, including a wrong kind keyword, a malformed name or a missing
// closing brace, is literal text.
var referencePattern = regexp.MustCompile(`@\{(text|input|ref):(` + preset.NamePattern + `)\}`)

// mediaReferencePattern matches only @{input:name} and @{ref:name}. It is used
// inside value-mapped text, where text tokens stay literal.
var mediaReferencePattern = regexp.MustCompile(`@\{(input|ref):(` + preset.NamePattern + `)\}`)

// ParseReferences returns the reference tokens of a template in source order,
// one entry per occurrence.
func ParseReferences(template string) []Reference {
	matches := referencePattern.FindAllStringSubmatch(template, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Reference{Kind: RefKind(m[1]), Name: m[2]})
	}
	return refs
}

// ReferencedNames returns the distinct names referenced with the given kind, sorted.
func ReferencedNames(template string, kind RefKind) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ref := range ParseReferences(template) {
		if ref.Kind != kind || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		names = append(names, ref.Name)
	}
	sort.Strings(names)
	return names
}

// replaceReferences rewrites every match of re in s with fn's result.
// re must capture the kind and the name as its two groups.
func replaceReferences(re *regexp.Regexp, s string, fn func(Reference) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(Reference{Kind: RefKind(s[m[2]:m[3]]), Name: s[m[4]:m[5]]}))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
