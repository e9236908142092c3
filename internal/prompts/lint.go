package prompts

import (
	"fmt"

	"github.com/vileikis/clementine/internal/preset"
)

// Lint returns the structural issues of a preset: the name rules enforced by
// preset.Check, plus notices for variables and media entries that nothing in
// the template or its value mappings references.
func Lint(p *preset.Preset) []preset.Issue {
	issues := preset.Check(p)

	used := make(map[Reference]bool)
	for _, ref := range ParseReferences(p.Template) {
		used[ref] = true
	}
	for _, v := range p.Variables {
		tv, ok := v.(*preset.TextVariable)
		if !ok {
			continue
		}
		// Text tokens inside mapped text are never resolved, so they do not count.
		for _, m := range tv.ValueMap {
			for _, sm := range mediaReferencePattern.FindAllStringSubmatch(m.Text, -1) {
				used[Reference{Kind: RefKind(sm[1]), Name: sm[2]}] = true
			}
		}
	}

	for i, v := range p.Variables {
		kind := RefText
		if v.Type() == preset.VariableImage {
			kind = RefInput
		}
		if used[Reference{Kind: kind, Name: v.VariableName()}] {
			continue
		}
		issues = append(issues, preset.Issue{
			Severity: preset.SeverityNotice,
			Field:    fmt.Sprintf("variables[%d]", i),
			Message:  fmt.Sprintf("variable %q is never referenced as @{%s:%s}", v.VariableName(), kind, v.VariableName()),
		})
	}

	for i, m := range p.MediaRegistry {
		if used[Reference{Kind: RefMedia, Name: m.Name}] {
			continue
		}
		issues = append(issues, preset.Issue{
			Severity: preset.SeverityNotice,
			Field:    fmt.Sprintf("mediaRegistry[%d]", i),
			Message:  fmt.Sprintf("media %q is never referenced as @{ref:%s}", m.Name, m.Name),
		})
	}

	return issues
}
