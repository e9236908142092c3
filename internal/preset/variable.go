package preset

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// VariableType discriminates the Variable sum type on the wire.
type VariableType string

const (
	VariableText  VariableType = "text"
	VariableImage VariableType = "image"
)

// Variable is a user-defined template variable. The set of implementations is
// closed: *TextVariable and *ImageVariable.
type Variable interface {
	VariableID() string
	VariableName() string
	Type() VariableType
	clone() Variable
}

// ValueMapping associates one discrete input value with substitute prompt text.
type ValueMapping struct {
	Value string `json:"value" yaml:"value"`
	Text  string `json:"text" yaml:"text"`
}

// TextVariable is filled from a text input, a value mapping, or a default.
// A nil ValueMap means the variable has no value map; a non-nil empty ValueMap
// is a value map with no entries.
type TextVariable struct {
	ID           string
	Name         string
	DefaultValue *string
	ValueMap     []ValueMapping
}

func (v *TextVariable) VariableID() string   { return v.ID }
func (v *TextVariable) VariableName() string { return v.Name }
func (v *TextVariable) Type() VariableType   { return VariableText }

// Default returns the default value when one is set and non-empty.
func (v *TextVariable) Default() (string, bool) {
	if v.DefaultValue == nil || *v.DefaultValue == "" {
		return "", false
	}
	return *v.DefaultValue, true
}

// Mapping returns the first mapping whose value equals input exactly.
func (v *TextVariable) Mapping(input string) (ValueMapping, bool) {
	for _, m := range v.ValueMap {
		if m.Value == input {
			return m, true
		}
	}
	return ValueMapping{}, false
}

func (v *TextVariable) clone() Variable {
	out := &TextVariable{ID: v.ID, Name: v.Name}
	if v.DefaultValue != nil {
		d := *v.DefaultValue
		out.DefaultValue = &d
	}
	if v.ValueMap != nil {
		out.ValueMap = make([]ValueMapping, len(v.ValueMap))
		copy(out.ValueMap, v.ValueMap)
	}
	return out
}

// ImageVariable is filled by an uploaded media value.
type ImageVariable struct {
	ID   string
	Name string
}

func (v *ImageVariable) VariableID() string   { return v.ID }
func (v *ImageVariable) VariableName() string { return v.Name }
func (v *ImageVariable) Type() VariableType   { return VariableImage }

func (v *ImageVariable) clone() Variable {
	out := *v
	return &out
}

// StringPtr is a convenience for building DefaultValue.
func StringPtr(s string) *string {
	return &s
}

// Variables is the ordered variable list of a preset.
type Variables []Variable

// Lookup returns the first variable with the given name, whatever its type.
func (vs Variables) Lookup(name string) (Variable, bool) {
	for _, v := range vs {
		if v.VariableName() == name {
			return v, true
		}
	}
	return nil, false
}

// Text returns the text variable with the given name.
func (vs Variables) Text(name string) (*TextVariable, bool) {
	for _, v := range vs {
		if tv, ok := v.(*TextVariable); ok && tv.Name == name {
			return tv, true
		}
	}
	return nil, false
}

// Image returns the image variable with the given name.
func (vs Variables) Image(name string) (*ImageVariable, bool) {
	for _, v := range vs {
		if iv, ok := v.(*ImageVariable); ok && iv.Name == name {
			return iv, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the list.
func (vs Variables) Clone() Variables {
	if vs == nil {
		return nil
	}
	out := make(Variables, len(vs))
	for i, v := range vs {
		out[i] = v.clone()
	}
	return out
}

// variableDoc is the wire form shared by both variable types.
// ValueMap is a pointer so that null and [] stay distinguishable.
type variableDoc struct {
	Type         VariableType    `json:"type" yaml:"type"`
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string          `json:"name" yaml:"name"`
	DefaultValue *string         `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	ValueMap     *[]ValueMapping `json:"valueMap,omitempty" yaml:"valueMap,omitempty"`
}

func toDoc(v Variable) variableDoc {
	switch v := v.(type) {
	case *TextVariable:
		doc := variableDoc{Type: VariableText, ID: v.ID, Name: v.Name, DefaultValue: v.DefaultValue}
		if v.ValueMap != nil {
			vm := v.ValueMap
			doc.ValueMap = &vm
		}
		return doc
	case *ImageVariable:
		return variableDoc{Type: VariableImage, ID: v.ID, Name: v.Name}
	default:
		panic(fmt.Sprintf("preset: unknown variable type %T", v))
	}
}

func fromDoc(doc variableDoc) (Variable, error) {
	switch doc.Type {
	case VariableText:
		v := &TextVariable{ID: doc.ID, Name: doc.Name, DefaultValue: doc.DefaultValue}
		if doc.ValueMap != nil {
			v.ValueMap = *doc.ValueMap
			if v.ValueMap == nil {
				v.ValueMap = []ValueMapping{}
			}
		}
		return v, nil
	case VariableImage:
		return &ImageVariable{ID: doc.ID, Name: doc.Name}, nil
	default:
		return nil, fmt.Errorf("%w: variable %q has unknown type %q", ErrInvalidPreset, doc.Name, doc.Type)
	}
}

func (vs Variables) docs() []variableDoc {
	docs := make([]variableDoc, len(vs))
	for i, v := range vs {
		docs[i] = toDoc(v)
	}
	return docs
}

func (vs *Variables) setDocs(docs []variableDoc) error {
	out := make(Variables, 0, len(docs))
	for _, doc := range docs {
		v, err := fromDoc(doc)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*vs = out
	return nil
}

// MarshalJSON encodes the list with a "type" discriminator per element.
func (vs Variables) MarshalJSON() ([]byte, error) {
	return json.Marshal(vs.docs())
}

// UnmarshalJSON decodes a discriminated variable list.
func (vs *Variables) UnmarshalJSON(data []byte) error {
	var docs []variableDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return err
	}
	return vs.setDocs(docs)
}

// MarshalYAML encodes the list with a "type" discriminator per element.
func (vs Variables) MarshalYAML() (any, error) {
	return vs.docs(), nil
}

// UnmarshalYAML decodes a discriminated variable list.
func (vs *Variables) UnmarshalYAML(node *yaml.Node) error {
	var docs []variableDoc
	if err := node.Decode(&docs); err != nil {
		return err
	}
	return vs.setDocs(docs)
}
