package prompts

import (
	"github.com/vileikis/clementine/internal/preset"
)

// ValidatePresetInputs checks the inputs for completeness and the resolved
// prompt for reference integrity. Errors take precedence over warnings when
// deriving the status.
func ValidatePresetInputs(variables preset.Variables, inputs preset.TestInputs, resolved ResolvedPrompt) ValidationState {
	state := ValidationState{
		Errors:   []FieldError{},
		Warnings: []Warning{},
	}

	for _, v := range variables {
		switch v := v.(type) {
		case *preset.ImageVariable:
			if _, ok := inputs.MediaOf(v.Name); !ok {
				state.Errors = append(state.Errors, FieldError{
					Field:   v.Name,
					Message: "Image required for: " + v.Name,
				})
			}
		case *preset.TextVariable:
			_, hasDefault := v.Default()
			if inputs.TextOf(v.Name) == "" && !hasDefault {
				state.Errors = append(state.Errors, FieldError{
					Field:   v.Name,
					Message: "Value required for: " + v.Name,
				})
			}
		}
	}

	for _, ref := range resolved.UnresolvedRefs {
		switch ref.Kind {
		case RefMedia:
			state.Warnings = append(state.Warnings, Warning{
				Type:      WarningUndefinedMedia,
				Message:   "Undefined media: " + ref.Token(),
				Reference: ref.Name,
			})
		default:
			state.Warnings = append(state.Warnings, Warning{
				Type:      WarningUndefinedVariable,
				Message:   "Undefined variable: " + ref.Token(),
				Reference: ref.Name,
			})
		}
	}

	switch {
	case len(state.Errors) > 0:
		state.Status = StatusIncomplete
	case len(state.Warnings) > 0:
		state.Status = StatusInvalid
	default:
		state.Status = StatusValid
	}
	return state
}
