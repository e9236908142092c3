package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/vileikis/clementine/internal/preset"
)

// Preview bundles everything an editor shows for one preset and input snapshot.
type Preview struct {
	Resolved   ResolvedPrompt   `json:"resolved" yaml:"resolved"`
	Validation ValidationState  `json:"validation" yaml:"validation"`
	Media      []MediaReference `json:"media" yaml:"media"`
	Issues     []preset.Issue   `json:"issues" yaml:"issues"`
}

// BuildPreview runs the whole engine over one preset.
func BuildPreview(p *preset.Preset, inputs preset.TestInputs) *Preview {
	resolved := ResolvePrompt(p.Template, inputs, p.Variables, p.MediaRegistry)
	issues := Lint(p)
	if issues == nil {
		issues = []preset.Issue{}
	}
	return &Preview{
		Resolved:   resolved,
		Validation: ValidatePresetInputs(p.Variables, inputs, resolved),
		Media:      ExtractMediaReferences(p.Template, inputs, p.Variables, p.MediaRegistry),
		Issues:     issues,
	}
}

// PreviewerConfig configures a Previewer.
type PreviewerConfig struct {
	// TTL is how long a preview stays cached. Zero keeps entries until Invalidate.
	TTL time.Duration

	// CleanupInterval is how often expired entries are purged. Zero disables purging.
	CleanupInterval time.Duration

	// MaxConcurrency bounds PreviewAll. Zero or negative means 4.
	MaxConcurrency int

	Logger *slog.Logger
}

// Previewer memoizes previews by the content of their inputs. Since the
// engine is a pure function, equal content always maps to an equal preview.
// Cached previews are shared and must be treated as read-only.
type Previewer struct {
	logger *slog.Logger

	mu          sync.RWMutex
	cache       *cache.Cache
	concurrency int
}

// NewPreviewer creates a previewer with an empty cache.
func NewPreviewer(cfg PreviewerConfig) *Previewer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pv := &Previewer{logger: logger}
	pv.Reset(cfg.TTL, cfg.CleanupInterval, cfg.MaxConcurrency)
	return pv
}

// Reset replaces the cache with an empty one using new settings.
func (pv *Previewer) Reset(ttl, cleanupInterval time.Duration, maxConcurrency int) {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	pv.mu.Lock()
	pv.cache = cache.New(ttl, cleanupInterval)
	pv.concurrency = maxConcurrency
	pv.mu.Unlock()
}

// previewKey is the canonical form hashed into a cache key. Map keys are
// sorted by encoding/json, so equal content always encodes identically.
type previewKey struct {
	Template      string               `json:"template"`
	Inputs        preset.TestInputs    `json:"inputs"`
	Variables     preset.Variables     `json:"variables"`
	MediaRegistry preset.MediaRegistry `json:"mediaRegistry"`
}

func cacheKey(p *preset.Preset, inputs preset.TestInputs) (string, error) {
	data, err := json.Marshal(previewKey{
		Template:      p.Template,
		Inputs:        inputs,
		Variables:     p.Variables,
		MediaRegistry: p.MediaRegistry,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode preview key: %w", err)
	}
	return HashText(string(data)), nil
}

// Preview returns the preview of p with inputs, from cache when possible.
func (pv *Previewer) Preview(p *preset.Preset, inputs preset.TestInputs) (*Preview, error) {
	key, err := cacheKey(p, inputs)
	if err != nil {
		return nil, err
	}

	pv.mu.RLock()
	c := pv.cache
	pv.mu.RUnlock()

	if cached, ok := c.Get(key); ok {
		return cached.(*Preview), nil
	}

	preview := BuildPreview(p, inputs)
	c.SetDefault(key, preview)
	pv.logger.Debug("computed preview",
		"preset_id", p.ID,
		"status", preview.Validation.Status,
		"unresolved", len(preview.Resolved.UnresolvedRefs))
	return preview, nil
}

// Invalidate drops every cached preview.
func (pv *Previewer) Invalidate() {
	pv.mu.RLock()
	c := pv.cache
	pv.mu.RUnlock()
	c.Flush()
}

// Len returns the number of cached previews, including expired ones not yet purged.
func (pv *Previewer) Len() int {
	pv.mu.RLock()
	c := pv.cache
	pv.mu.RUnlock()
	return c.ItemCount()
}

// InputsFunc returns the test inputs to preview a preset with.
type InputsFunc func(ctx context.Context, presetID string) (preset.TestInputs, error)

// PreviewAll previews every preset concurrently. Results are in the order of
// presets. The first error cancels the remaining work.
func (pv *Previewer) PreviewAll(ctx context.Context, presets []*preset.Preset, inputsFor InputsFunc) ([]*Preview, error) {
	pv.mu.RLock()
	limit := pv.concurrency
	pv.mu.RUnlock()

	results := make([]*Preview, len(presets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, p := range presets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inputs, err := inputsFor(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("failed to load inputs for %s: %w", p.ID, err)
			}
			preview, err := pv.Preview(p, inputs)
			if err != nil {
				return fmt.Errorf("failed to preview %s: %w", p.ID, err)
			}
			results[i] = preview
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
