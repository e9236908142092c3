package prompts

import (
	"unicode/utf8"

	"github.com/vileikis/clementine/internal/preset"
)

// resolution carries the inputs of one ResolvePrompt call and accumulates
// unresolved references in encounter order.
type resolution struct {
	inputs     preset.TestInputs
	variables  preset.Variables
	registry   preset.MediaRegistry
	unresolved []Reference
}

func (r *resolution) markUnresolved(kind RefKind, name string) {
	r.unresolved = append(r.unresolved, Reference{Kind: kind, Name: name})
}

// ResolvePrompt substitutes every reference token of template and reports the
// references whose target does not exist. It is a pure function of its
// arguments: equal inputs always give deep-equal results.
func ResolvePrompt(template string, inputs preset.TestInputs, variables preset.Variables, registry preset.MediaRegistry) ResolvedPrompt {
	r := &resolution{
		inputs:     inputs,
		variables:  variables,
		registry:   registry,
		unresolved: []Reference{},
	}

	text := replaceReferences(referencePattern, template, r.resolveReference)

	return ResolvedPrompt{
		Text:           text,
		CharacterCount: utf8.RuneCountInString(text),
		HasUnresolved:  len(r.unresolved) > 0,
		UnresolvedRefs: r.unresolved,
	}
}

func (r *resolution) resolveReference(ref Reference) string {
	switch ref.Kind {
	case RefText:
		return r.resolveText(ref.Name)
	default:
		return r.resolveMedia(ref)
	}
}

// resolveMappedText resolves the input and ref tokens inside value-mapped
// text. Text tokens are left as written: this never re-enters resolveText,
// which caps recursion at one level.
func (r *resolution) resolveMappedText(text string) string {
	return replaceReferences(mediaReferencePattern, text, r.resolveMedia)
}
