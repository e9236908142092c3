package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// InputStore persists test inputs per preset ID as JSON files.
// Reads and writes exchange deep copies, so callers always work on a
// private snapshot.
type InputStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewInputStore creates an input store rooted at dir.
func NewInputStore(dir string, logger *slog.Logger) *InputStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputStore{dir: dir, logger: logger}
}

func (s *InputStore) path(presetID string) (string, error) {
	if !ValidID(presetID) {
		return "", fmt.Errorf("%w: invalid id %q", ErrInvalidPreset, presetID)
	}
	return filepath.Join(s.dir, presetID+".json"), nil
}

// Get returns the stored inputs for a preset, or an empty map when none are stored.
func (s *InputStore) Get(ctx context.Context, presetID string) (TestInputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(presetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(path)
}

func (s *InputStore) read(path string) (TestInputs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return TestInputs{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}

	inputs := TestInputs{}
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs %s: %w", path, err)
	}
	for name, v := range inputs {
		if !v.IsSet() {
			delete(inputs, name)
		}
	}
	return inputs, nil
}

func (s *InputStore) write(path string, inputs TestInputs) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inputs directory: %w", err)
	}
	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write inputs: %w", err)
	}
	return nil
}

// Set replaces the stored inputs of a preset.
func (s *InputStore) Set(ctx context.Context, presetID string, inputs TestInputs) (TestInputs, error) {
	return s.Merge(ctx, presetID, inputs, true)
}

// Merge applies patch to the stored inputs. Unset values delete keys. With
// replace set, the stored inputs are discarded first.
func (s *InputStore) Merge(ctx context.Context, presetID string, patch TestInputs, replace bool) (TestInputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(presetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := TestInputs{}
	if !replace {
		if current, err = s.read(path); err != nil {
			return nil, err
		}
	}
	merged, err := current.Merge(patch)
	if err != nil {
		return nil, err
	}
	if err := s.write(path, merged); err != nil {
		return nil, err
	}

	s.logger.Debug("stored test inputs", "preset_id", presetID, "count", len(merged))
	return merged.Clone()
}

// Clear removes the stored inputs of a preset.
func (s *InputStore) Clear(ctx context.Context, presetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(presetID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear inputs: %w", err)
	}
	return nil
}
