package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ParseAssignments builds test inputs from command-line assignments:
// texts and images are name=value pairs, unset lists names to clear. Unset
// names map to the zero InputValue so that Merge deletes them.
func ParseAssignments(texts, images, unset []string) (TestInputs, error) {
	inputs := make(TestInputs, len(texts)+len(images)+len(unset))

	for _, a := range texts {
		name, value, err := splitAssignment(a)
		if err != nil {
			return nil, err
		}
		inputs[name] = TextInput(value)
	}
	for _, a := range images {
		name, url, err := splitAssignment(a)
		if err != nil {
			return nil, err
		}
		if url == "" {
			return nil, fmt.Errorf("image %q needs a URL", name)
		}
		inputs[name] = MediaInput(MediaValue{
			MediaAssetID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String(),
			URL:          url,
		})
	}
	for _, name := range unset {
		if !ValidName(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		inputs[name] = InputValue{}
	}
	return inputs, nil
}

func splitAssignment(a string) (string, string, error) {
	name, value, ok := strings.Cut(a, "=")
	if !ok {
		return "", "", fmt.Errorf("expected name=value, got %q", a)
	}
	if !ValidName(name) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, value, nil
}

// ReadInputsFile reads test inputs from a JSON or YAML file.
func ReadInputsFile(path string) (TestInputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}

	inputs := TestInputs{}
	switch FormatFromPath(path) {
	case FormatJSON:
		err = json.Unmarshal(data, &inputs)
	default:
		err = yaml.Unmarshal(data, &inputs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode inputs %s: %w", path, err)
	}
	return inputs, nil
}
