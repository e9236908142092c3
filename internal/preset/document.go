package preset

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/preset.schema.json
var schemaFS embed.FS

const schemaFile = "schemas/preset.schema.json"

// Format is the serialization of a preset document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func documentSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		raw, err := schemaFS.ReadFile(schemaFile)
		if err != nil {
			compiledSchemaErr = fmt.Errorf("failed to read preset schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("preset.schema.json", bytes.NewReader(raw)); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to load preset schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("preset.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateDocument checks a raw preset document against the embedded JSON Schema.
func ValidateDocument(data []byte, format Format) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}

	doc, err := genericDocument(data, format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return nil
}

// genericDocument decodes data into JSON-compatible values. YAML goes through
// a JSON round trip so that numbers and maps match what the validator expects.
func genericDocument(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return doc, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize YAML: %w", err)
		}
		doc = nil
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return nil, fmt.Errorf("failed to normalize YAML: %w", err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Decode validates and decodes a preset document.
func Decode(data []byte, format Format) (*Preset, error) {
	if err := ValidateDocument(data, format); err != nil {
		return nil, err
	}

	var p Preset
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if p.Variables == nil {
		p.Variables = Variables{}
	}
	if p.MediaRegistry == nil {
		p.MediaRegistry = MediaRegistry{}
	}
	return &p, nil
}

// Encode serializes a preset document.
func Encode(p *Preset, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(p, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, fmt.Errorf("failed to encode preset: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode preset: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
