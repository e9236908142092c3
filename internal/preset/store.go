package preset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Store keeps presets as one document per file in a directory and serves
// them from memory. All reads return deep copies.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	presets   map[string]*Preset
	files     map[string]string // path -> preset ID
	loaded    bool
	callbacks []func(id string)
}

// NewStore creates a store rooted at dir. Call Load before use.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     dir,
		logger:  logger,
		now:     time.Now,
		presets: make(map[string]*Preset),
		files:   make(map[string]string),
	}
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the number of presets held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.presets)
}

// OnChange registers a callback invoked with the ID of every preset that is
// created, replaced, deleted or reloaded from disk.
func (s *Store) OnChange(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *Store) notify(id string) {
	s.mu.RLock()
	callbacks := make([]func(string), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.RUnlock()

	for _, fn := range callbacks {
		fn(id)
	}
}

func isPresetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}

// Load reads every preset document in the directory, replacing what is held.
// Documents that fail to decode are logged and skipped.
func (s *Store) Load(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read presets directory: %w", err)
	}

	presets := make(map[string]*Preset)
	files := make(map[string]string)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !isPresetFile(e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		p, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable preset", "path", path, "error", err)
			continue
		}
		if _, dup := presets[p.ID]; dup {
			s.logger.Warn("skipping preset with duplicate id", "path", path, "id", p.ID)
			continue
		}
		presets[p.ID] = p
		files[path] = p.ID
	}

	s.mu.Lock()
	s.presets = presets
	s.files = files
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("loaded presets", "dir", s.dir, "count", len(presets))
	return nil
}

// readFile decodes a preset file and logs the name errors Put would reject.
// Such presets are still served so previews can report them.
func (s *Store) readFile(path string) (*Preset, error) {
	p, err := readPresetFile(path)
	if err != nil {
		return nil, err
	}
	if err := IssuesErr(Check(p)); err != nil {
		s.logger.Warn("preset file has invalid names", "path", path, "id", p.ID, "error", err)
	}
	return p, nil
}

// readPresetFile decodes a preset file. The file name is the ID fallback.
func readPresetFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if !ValidID(p.ID) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrInvalidPreset, p.ID)
	}
	return p, nil
}

// List returns all presets sorted by name, then ID.
func (s *Store) List(ctx context.Context) ([]*Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]*Preset, 0, len(s.presets))
	for _, p := range s.presets {
		cp, err := p.Clone()
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		result = append(result, cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Get returns the preset with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	p, ok := s.presets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.Clone()
}

// Put creates or replaces a preset. Missing preset, variable and media asset
// IDs are minted, timestamps are maintained, and the name invariants enforced
// by Check must hold. The stored copy is returned.
func (s *Store) Put(ctx context.Context, in *Preset) (*Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := IssuesErr(Check(in)); err != nil {
		return nil, err
	}

	p, err := in.Clone()
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if !ValidID(p.ID) {
		return nil, fmt.Errorf("%w: invalid id %q", ErrInvalidPreset, p.ID)
	}
	assignIDs(p)

	now := s.now().UTC()
	s.mu.Lock()
	if existing, ok := s.presets[p.ID]; ok && !existing.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	path := s.pathFor(p.ID)
	if err := writePresetFile(path, p); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.presets[p.ID] = p
	s.files[path] = p.ID
	s.mu.Unlock()

	s.logger.Debug("stored preset", "id", p.ID, "name", p.Name)
	s.notify(p.ID)
	return p.Clone()
}

// Delete removes a preset and its file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.presets[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for path, pid := range s.files {
		if pid != id {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.mu.Unlock()
			return fmt.Errorf("failed to remove preset file: %w", err)
		}
		delete(s.files, path)
	}
	delete(s.presets, id)
	s.mu.Unlock()

	s.logger.Debug("deleted preset", "id", id)
	s.notify(id)
	return nil
}

// pathFor returns the file a preset is stored in. Presets loaded from a
// differently named file keep that file.
func (s *Store) pathFor(id string) string {
	if path, ok := s.ownerOf(id); ok {
		return path
	}
	return filepath.Join(s.dir, id+".yaml")
}

func assignIDs(p *Preset) {
	for _, v := range p.Variables {
		switch v := v.(type) {
		case *TextVariable:
			if v.ID == "" {
				v.ID = uuid.New().String()
			}
		case *ImageVariable:
			if v.ID == "" {
				v.ID = uuid.New().String()
			}
		}
	}
	for i := range p.MediaRegistry {
		if p.MediaRegistry[i].MediaAssetID == "" {
			p.MediaRegistry[i].MediaAssetID = uuid.New().String()
		}
	}
}

// writePresetFile writes atomically via a temp file in the same directory.
func writePresetFile(path string, p *Preset) error {
	data, err := Encode(p, FormatFromPath(path))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".preset-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace preset file: %w", err)
	}
	return nil
}

// Watch reloads preset files edited outside the store until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.logger.Info("watching presets directory", "dir", s.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("presets watcher error", "error", err)
		}
	}
}

// ownerOf returns the file holding id. Callers hold s.mu.
func (s *Store) ownerOf(id string) (string, bool) {
	for path, owned := range s.files {
		if owned == id {
			return path, true
		}
	}
	return "", false
}

func (s *Store) handleEvent(event fsnotify.Event) {
	if !isPresetFile(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		s.mu.Lock()
		id, ok := s.files[event.Name]
		if ok {
			delete(s.files, event.Name)
			delete(s.presets, id)
		}
		s.mu.Unlock()
		if ok {
			s.logger.Info("preset file removed", "path", event.Name, "id", id)
			s.notify(id)
		}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		p, err := s.readFile(event.Name)
		if err != nil {
			s.logger.Warn("ignoring invalid preset file", "path", event.Name, "error", err)
			return
		}
		s.mu.Lock()
		if owner, ok := s.ownerOf(p.ID); ok && owner != event.Name {
			s.mu.Unlock()
			s.logger.Warn("skipping preset with duplicate id", "path", event.Name, "id", p.ID, "owner", owner)
			return
		}
		if prev, ok := s.files[event.Name]; ok && prev != p.ID {
			delete(s.presets, prev)
		}
		s.presets[p.ID] = p
		s.files[event.Name] = p.ID
		s.mu.Unlock()
		s.logger.Debug("preset file reloaded", "path", event.Name, "id", p.ID)
		s.notify(p.ID)
	}
}
