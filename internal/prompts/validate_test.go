package prompts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vileikis/clementine/internal/preset"
)

func TestValidatePresetInputs(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		vars := preset.Variables{
			textVar("name", nil, nil),
			textVar("mood", preset.StringPtr("calm"), nil),
			imageVar("photo"),
		}
		inputs := preset.TestInputs{
			"name":  preset.TextInput("Alice"),
			"photo": upload("https://cdn/p.png"),
		}
		resolved := ResolvePrompt("@{text:name} @{text:mood} @{input:photo}", inputs, vars, nil)
		got := ValidatePresetInputs(vars, inputs, resolved)
		want := ValidationState{Status: StatusValid, Errors: []FieldError{}, Warnings: []Warning{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("completeness errors", func(t *testing.T) {
		vars := preset.Variables{
			imageVar("photo"),
			textVar("name", nil, nil),
			textVar("blank", preset.StringPtr(""), nil),
			textVar("mood", preset.StringPtr("calm"), nil),
		}
		inputs := preset.TestInputs{"name": preset.TextInput("")}
		got := ValidatePresetInputs(vars, inputs, ResolvePrompt("", inputs, vars, nil))
		want := ValidationState{
			Status: StatusIncomplete,
			Errors: []FieldError{
				{Field: "photo", Message: "Image required for: photo"},
				{Field: "name", Message: "Value required for: name"},
				{Field: "blank", Message: "Value required for: blank"},
			},
			Warnings: []Warning{},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reference warnings", func(t *testing.T) {
		resolved := ResolvePrompt("@{text:a} @{input:b} @{ref:c}", nil, nil, nil)
		got := ValidatePresetInputs(nil, nil, resolved)
		want := ValidationState{
			Status: StatusInvalid,
			Errors: []FieldError{},
			Warnings: []Warning{
				{Type: WarningUndefinedVariable, Message: "Undefined variable: @{text:a}", Reference: "a"},
				{Type: WarningUndefinedVariable, Message: "Undefined variable: @{input:b}", Reference: "b"},
				{Type: WarningUndefinedMedia, Message: "Undefined media: @{ref:c}", Reference: "c"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("errors dominate warnings", func(t *testing.T) {
		vars := preset.Variables{imageVar("photo")}
		resolved := ResolvePrompt("@{input:photo} @{text:gone}", nil, vars, nil)
		got := ValidatePresetInputs(vars, nil, resolved)
		if got.Status != StatusIncomplete {
			t.Errorf("expected %s, got %s", StatusIncomplete, got.Status)
		}
		if len(got.Errors) != 1 || len(got.Warnings) != 1 {
			t.Errorf("expected 1 error and 1 warning, got %d and %d", len(got.Errors), len(got.Warnings))
		}
	})
}
