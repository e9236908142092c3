// Package preset holds the preset data model and its persistence.
//
// A preset is a named prompt template plus the variables and media registry
// its reference tokens point at:
//   - Variables are a closed sum type: *TextVariable or *ImageVariable
//   - The media registry lists reusable named assets addressed by @{ref:name}
//   - Test inputs are session-local values keyed by variable name
//
// Presets are stored one document per file (YAML or JSON). Test inputs are
// stored separately, keyed by preset ID, so editing inputs never rewrites the
// preset document itself.
package preset

import (
	"errors"
	"regexp"
	"time"
)

// NamePattern is the grammar shared by variable names, media names and the
// name part of reference tokens.
const NamePattern = `[a-zA-Z_][a-zA-Z0-9_]*`

var validNamePattern = regexp.MustCompile(`^` + NamePattern + `$`)

// validIDPattern restricts preset IDs to values that are safe as file names.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

var (
	// ErrNotFound is returned when a preset does not exist.
	ErrNotFound = errors.New("preset not found")

	// ErrInvalidPreset is returned when a preset document fails schema validation or decoding.
	ErrInvalidPreset = errors.New("invalid preset")

	// ErrInvalidName is returned when a variable or media name does not match NamePattern.
	ErrInvalidName = errors.New("invalid name")

	// ErrDuplicateName is returned when two variables or two media entries share a name.
	ErrDuplicateName = errors.New("duplicate name")
)

// ValidName reports whether name matches NamePattern.
func ValidName(name string) bool {
	return validNamePattern.MatchString(name)
}

// ValidID reports whether id can be used as a preset ID.
func ValidID(id string) bool {
	return validIDPattern.MatchString(id)
}

// Preset is a saved prompt template with its variable and media definitions.
type Preset struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Template      string        `json:"template" yaml:"template"`
	Variables     Variables     `json:"variables" yaml:"variables"`
	MediaRegistry MediaRegistry `json:"mediaRegistry" yaml:"mediaRegistry"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// Clone returns a deep copy of the preset.
func (p *Preset) Clone() (*Preset, error) {
	out := *p
	out.Variables = p.Variables.Clone()
	out.MediaRegistry = nil
	if p.MediaRegistry != nil {
		if err := copyValue(&out.MediaRegistry, p.MediaRegistry); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// MediaEntry is one item of a preset's media registry.
type MediaEntry struct {
	Name         string `json:"name" yaml:"name"`
	URL          string `json:"url" yaml:"url"`
	MediaAssetID string `json:"mediaAssetId,omitempty" yaml:"mediaAssetId,omitempty"`
	FilePath     string `json:"filePath,omitempty" yaml:"filePath,omitempty"`
}

// MediaRegistry is the ordered list of a preset's named media assets.
type MediaRegistry []MediaEntry

// Lookup returns the first entry whose name matches exactly.
func (r MediaRegistry) Lookup(name string) (MediaEntry, bool) {
	for _, m := range r {
		if m.Name == name {
			return m, true
		}
	}
	return MediaEntry{}, false
}

// Summary is the list view of a preset.
type Summary struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	VariableCount int       `json:"variable_count" yaml:"variable_count"`
	MediaCount    int       `json:"media_count" yaml:"media_count"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// Summarize returns the list view of p.
func (p *Preset) Summarize() Summary {
	return Summary{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		VariableCount: len(p.Variables),
		MediaCount:    len(p.MediaRegistry),
		UpdatedAt:     p.UpdatedAt,
	}
}
