package preset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestPreset(name string) *Preset {
	return &Preset{
		Name:     name,
		Template: "@{text:style} @{input:photo} @{ref:logo}",
		Variables: Variables{
			&TextVariable{Name: "style", DefaultValue: StringPtr("plain")},
			&ImageVariable{Name: "photo"},
		},
		MediaRegistry: MediaRegistry{{Name: "logo", URL: "https://cdn/logo.png"}},
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(dir, nil)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var changed []string
	store.OnChange(func(id string) { changed = append(changed, id) })

	created, err := store.Put(ctx, newTestPreset("Portrait"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	t.Run("mints ids", func(t *testing.T) {
		if created.ID == "" {
			t.Error("expected preset id")
		}
		for _, v := range created.Variables {
			if v.VariableID() == "" {
				t.Errorf("expected id for variable %s", v.VariableName())
			}
		}
		if created.MediaRegistry[0].MediaAssetID == "" {
			t.Error("expected media asset id")
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Error("expected timestamps")
		}
	})

	t.Run("writes a yaml file", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(dir, created.ID+".yaml")); err != nil {
			t.Errorf("expected preset file: %v", err)
		}
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := store.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		got.Name = "mutated"
		got.Variables[0].(*TextVariable).Name = "mutated"
		got.MediaRegistry[0].URL = "mutated"

		again, err := store.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if again.Name != "Portrait" || again.Variables[0].VariableName() != "style" || again.MediaRegistry[0].URL != "https://cdn/logo.png" {
			t.Errorf("store was mutated through a returned preset: %+v", again)
		}
	})

	t.Run("replace keeps created time", func(t *testing.T) {
		later := created.CreatedAt.Add(time.Hour)
		store.now = func() time.Time { return later }

		update := newTestPreset("Portrait v2")
		update.ID = created.ID
		replaced, err := store.Put(ctx, update)
		if err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if !replaced.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("expected created at %v, got %v", created.CreatedAt, replaced.CreatedAt)
		}
		if !replaced.UpdatedAt.Equal(later) {
			t.Errorf("expected updated at %v, got %v", later, replaced.UpdatedAt)
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 preset, got %d", store.Len())
		}
	})

	t.Run("notifies changes", func(t *testing.T) {
		if len(changed) != 2 || changed[0] != created.ID || changed[1] != created.ID {
			t.Errorf("expected two notifications for %s, got %v", created.ID, changed)
		}
	})

	t.Run("rejects invalid presets", func(t *testing.T) {
		bad := newTestPreset("Bad")
		bad.Variables = append(bad.Variables, &TextVariable{Name: "style"})
		if _, err := store.Put(ctx, bad); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}

		bad = newTestPreset("Bad")
		bad.ID = "../escape"
		if _, err := store.Put(ctx, bad); !errors.Is(err, ErrInvalidPreset) {
			t.Errorf("expected ErrInvalidPreset, got %v", err)
		}
	})
}

func TestStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir(), nil)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	for _, name := range []string{"Charlie", "alpha", "Bravo"} {
		if _, err := store.Put(ctx, newTestPreset(name)); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	want := []string{"Bravo", "Charlie", "alpha"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	if err := store.Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 presets, got %d", store.Len())
	}
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	files := map[string]string{
		"portrait.yaml":  "name: Portrait\ntemplate: hi\n",
		"landscape.json": `{"id":"land","name":"Landscape","template":"hi"}`,
		"broken.yaml":    "name: [\n",
		"invalid.yaml":   "template: no name\n",
		"zz-dup.yaml":    "id: land\nname: Duplicate\ntemplate: hi\n",
		"notes.txt":      "not a preset",
		".hidden.yaml":   "name: Hidden\ntemplate: hi\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := NewStore(dir, nil)
	if store.Loaded() {
		t.Error("expected store to be unloaded before Load")
	}
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !store.Loaded() {
		t.Error("expected store to be loaded")
	}

	if store.Len() != 2 {
		t.Errorf("expected 2 presets, got %d", store.Len())
	}
	if p, err := store.Get(ctx, "portrait"); err != nil || p.Name != "Portrait" {
		t.Errorf("expected portrait from file name, got %v, %v", p, err)
	}
	if _, err := store.Get(ctx, "land"); err != nil {
		t.Errorf("expected land preset: %v", err)
	}

	t.Run("put keeps original file", func(t *testing.T) {
		p, err := store.Get(ctx, "land")
		if err != nil {
			t.Fatal(err)
		}
		p.Description = "updated"
		if _, err := store.Put(ctx, p); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "landscape.json"))
		if err != nil {
			t.Fatal(err)
		}
		back, err := Decode(data, FormatJSON)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if back.Description != "updated" {
			t.Errorf("expected updated description, got %q", back.Description)
		}
		if _, err := os.Stat(filepath.Join(dir, "land.yaml")); !os.IsNotExist(err) {
			t.Error("expected no new file for an existing preset")
		}
	})
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var mu sync.Mutex
	seen := make(map[string]bool)
	store.OnChange(func(id string) {
		mu.Lock()
		seen[id] = true
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	path := filepath.Join(dir, "external.yaml")
	waitFor := func(cond func() bool) bool {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return true
			}
			time.Sleep(20 * time.Millisecond)
		}
		return false
	}

	// The watcher starts asynchronously, so keep rewriting until it notices.
	added := waitFor(func() bool {
		if err := os.WriteFile(path, []byte("name: External\ntemplate: hi\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(30 * time.Millisecond)
		_, err := store.Get(context.Background(), "external")
		return err == nil
	})
	if !added {
		t.Fatal("expected watcher to load external preset")
	}
	mu.Lock()
	if !seen["external"] {
		t.Error("expected change notification for external")
	}
	mu.Unlock()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	removed := waitFor(func() bool {
		_, err := store.Get(context.Background(), "external")
		return errors.Is(err, ErrNotFound)
	})
	if !removed {
		t.Error("expected watcher to drop removed preset")
	}

	// A second file claiming a held ID is skipped, and removing it leaves
	// the original in place. Marker files order the assertions after the
	// watcher has handled the preceding events.
	write := func(name, doc string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	present := func(id string) bool {
		_, err := store.Get(context.Background(), id)
		return err == nil
	}
	nameOf := func(id string) string {
		p, err := store.Get(context.Background(), id)
		if err != nil {
			return ""
		}
		return p.Name
	}

	write("a.yaml", "id: dup\nname: A\ntemplate: hi\n")
	if !waitFor(func() bool { return nameOf("dup") == "A" }) {
		t.Fatal("expected watcher to load a.yaml")
	}

	write("b.yaml", "id: dup\nname: B\ntemplate: hi\n")
	write("marker1.yaml", "name: Marker\ntemplate: hi\n")
	if !waitFor(func() bool { return present("marker1") }) {
		t.Fatal("expected watcher to load marker1.yaml")
	}
	if got := nameOf("dup"); got != "A" {
		t.Errorf("expected duplicate id file to be skipped, got name %q", got)
	}

	if err := os.Remove(filepath.Join(dir, "b.yaml")); err != nil {
		t.Fatal(err)
	}
	write("marker2.yaml", "name: Marker\ntemplate: hi\n")
	if !waitFor(func() bool { return present("marker2") }) {
		t.Fatal("expected watcher to load marker2.yaml")
	}
	if got := nameOf("dup"); got != "A" {
		t.Errorf("expected a.yaml to keep serving dup after b.yaml was removed, got name %q", got)
	}
}

func TestStore_LoadLogsInvalidNames(t *testing.T) {
	dir := t.TempDir()
	doc := `name: Clash
template: "@{text:style}"
variables:
  - type: text
    name: style
  - type: image
    name: style
`
	if err := os.WriteFile(filepath.Join(dir, "clash.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	store := NewStore(dir, slog.New(slog.NewTextHandler(&buf, nil)))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if _, err := store.Get(context.Background(), "clash"); err != nil {
		t.Errorf("expected clash to stay loaded: %v", err)
	}
	if !strings.Contains(buf.String(), "preset file has invalid names") {
		t.Errorf("expected a warning for duplicate variable names, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "duplicate variable name") {
		t.Errorf("expected the check error in the log, got %q", buf.String())
	}
}
