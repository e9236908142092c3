package preset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"
)

// MediaValue is an uploaded media item used as a test input for an image
// variable. It is a serializable reference, never a file handle.
type MediaValue struct {
	MediaAssetID string `json:"mediaAssetId" yaml:"mediaAssetId"`
	URL          string `json:"url" yaml:"url"`
	FilePath     string `json:"filePath,omitempty" yaml:"filePath,omitempty"`
}

// InputValue is one test input. At most one of Text and Media is set; the
// zero value means unset.
type InputValue struct {
	Text  *string
	Media *MediaValue
}

// TextInput returns a text input value.
func TextInput(s string) InputValue {
	return InputValue{Text: &s}
}

// MediaInput returns a media input value.
func MediaInput(m MediaValue) InputValue {
	return InputValue{Media: &m}
}

// IsSet reports whether the value holds either a text or a media value.
func (v InputValue) IsSet() bool {
	return v.Text != nil || v.Media != nil
}

// MarshalJSON encodes text as a string, media as an object and unset as null.
func (v InputValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Media != nil:
		return json.Marshal(v.Media)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, a media object or null.
func (v *InputValue) UnmarshalJSON(data []byte) error {
	*v = InputValue{}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Text = &s
		return nil
	case data[0] == '{':
		var m MediaValue
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		v.Media = &m
		return nil
	default:
		return fmt.Errorf("input value must be a string, a media object or null, got %s", data)
	}
}

// MarshalYAML mirrors MarshalJSON.
func (v InputValue) MarshalYAML() (any, error) {
	switch {
	case v.Media != nil:
		return v.Media, nil
	case v.Text != nil:
		return *v.Text, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts a scalar, a media mapping or null.
func (v *InputValue) UnmarshalYAML(node *yaml.Node) error {
	*v = InputValue{}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil
		}
		s := node.Value
		v.Text = &s
		return nil
	case yaml.MappingNode:
		var m MediaValue
		if err := node.Decode(&m); err != nil {
			return err
		}
		v.Media = &m
		return nil
	default:
		return fmt.Errorf("line %d: input value must be a scalar, a media mapping or null", node.Line)
	}
}

// TestInputs maps variable names to their current test input.
// Missing keys and unset values both mean "no input".
type TestInputs map[string]InputValue

// TextOf returns the text input for name, or "" when unset or not text.
func (in TestInputs) TextOf(name string) string {
	v, ok := in[name]
	if !ok || v.Text == nil {
		return ""
	}
	return *v.Text
}

// MediaOf returns the media input for name.
func (in TestInputs) MediaOf(name string) (MediaValue, bool) {
	v, ok := in[name]
	if !ok || v.Media == nil {
		return MediaValue{}, false
	}
	return *v.Media, true
}

// Clone returns a deep copy of the inputs.
func (in TestInputs) Clone() (TestInputs, error) {
	if in == nil {
		return TestInputs{}, nil
	}
	out := make(TestInputs, len(in))
	if err := copyValue(&out, in); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge applies patch to a copy of in. Unset values in patch delete the key.
func (in TestInputs) Merge(patch TestInputs) (TestInputs, error) {
	out, err := in.Clone()
	if err != nil {
		return nil, err
	}
	for name, v := range patch {
		if !v.IsSet() {
			delete(out, name)
			continue
		}
		var cp InputValue
		if err := copyValue(&cp, v); err != nil {
			return nil, err
		}
		out[name] = cp
	}
	return out, nil
}

func copyValue(dst, src any) error {
	if err := deepcopy.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %T: %w", src, err)
	}
	return nil
}
