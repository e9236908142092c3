// Package prompts resolves and validates preset prompt templates.
//
// A template embeds reference tokens of the form @{kind:name}:
//   - @{text:name}  a text variable, filled from input, value map or default
//   - @{input:name} an image variable, filled by an uploaded test input
//   - @{ref:name}   an entry of the preset's media registry
//
// Resolution is a single left-to-right pass. Text produced by a matched value
// mapping is resolved once more for input and ref tokens only, so recursion
// depth is bounded at one. Nothing in this package returns an error: missing
// targets surface as bracketed placeholders, unresolved references and
// validation items.
package prompts

import "fmt"

// RefKind is the kind keyword of a reference token.
type RefKind string

const (
	RefText  RefKind = "text"
	RefInput RefKind = "input"
	RefMedia RefKind = "ref"
)

// Reference is one parsed @{kind:name} token.
type Reference struct {
	Kind RefKind `json:"kind" yaml:"kind"`
	Name string  `json:"name" yaml:"name"`
}

// Token returns the reference in template syntax.
func (r Reference) Token() string {
	return fmt.Sprintf("@{%s:%s}", r.Kind, r.Name)
}

// ResolvedPrompt is the result of resolving a template.
type ResolvedPrompt struct {
	Text           string      `json:"text" yaml:"text"`
	CharacterCount int         `json:"characterCount" yaml:"characterCount"`
	HasUnresolved  bool        `json:"hasUnresolved" yaml:"hasUnresolved"`
	UnresolvedRefs []Reference `json:"unresolvedRefs" yaml:"unresolvedRefs"`
}

// ValidationStatus is the overall verdict of ValidatePresetInputs.
type ValidationStatus string

const (
	StatusValid      ValidationStatus = "valid"
	StatusIncomplete ValidationStatus = "incomplete"
	StatusInvalid    ValidationStatus = "invalid"
)

// FieldError is a completeness error for one variable.
type FieldError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// WarningType classifies a reference-integrity warning.
type WarningType string

const (
	WarningUndefinedVariable WarningType = "undefined-variable"
	WarningUndefinedMedia    WarningType = "undefined-media"
)

// Warning is a reference-integrity problem found in a resolved prompt.
type Warning struct {
	Type      WarningType `json:"type" yaml:"type"`
	Message   string      `json:"message" yaml:"message"`
	Reference string      `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// ValidationState is the three-state verdict with itemized errors and warnings.
type ValidationState struct {
	Status   ValidationStatus `json:"status" yaml:"status"`
	Errors   []FieldError     `json:"errors" yaml:"errors"`
	Warnings []Warning        `json:"warnings" yaml:"warnings"`
}

// MediaSource says where a preview media item comes from.
type MediaSource string

const (
	SourceRegistry MediaSource = "registry"
	SourceTest     MediaSource = "test"
)

// MediaReference is one concrete media item for a preview grid.
type MediaReference struct {
	Name   string      `json:"name" yaml:"name"`
	URL    string      `json:"url" yaml:"url"`
	Source MediaSource `json:"source" yaml:"source"`
	Type   RefKind     `json:"type" yaml:"type"`
}

// Placeholders written into resolved text.
func undefinedPlaceholder(name string) string    { return "[Undefined: " + name + "]" }
func noMappingPlaceholder(name string) string    { return "[No mapping: " + name + "]" }
func noValuePlaceholder(name string) string      { return "[No value: " + name + "]" }
func imagePlaceholder(name string) string        { return "[Image: " + name + "]" }
func missingImagePlaceholder(name string) string { return "[Image: " + name + " (missing)]" }
func mediaPlaceholder(name string) string        { return "[Media: " + name + "]" }
func missingMediaPlaceholder(name string) string { return "[Media: " + name + " (missing)]" }
