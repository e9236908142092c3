// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/vileikis/clementine/internal/config"
	"github.com/vileikis/clementine/internal/home"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/prompts"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Store         *preset.Store
	Inputs        *preset.InputStore
	Previewer     *prompts.Previewer
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// StoreFrom extracts the preset store from context.
func StoreFrom(ctx context.Context) *preset.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// InputsFrom extracts the test-input store from context.
func InputsFrom(ctx context.Context) *preset.InputStore {
	if s := ServicesFrom(ctx); s != nil {
		return s.Inputs
	}
	return nil
}

// PreviewerFrom extracts the preview cache from context.
func PreviewerFrom(ctx context.Context) *prompts.Previewer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Previewer
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
