package renderer

import (
	"log/slog"
)

// renderSystemConfig holds the options shared by every RenderSystem implementation.
type renderSystemConfig struct {
	logger      *slog.Logger
	labelPrefix string
}

// RenderSystemBuilderOption is a functional option for configuring a RenderSystem.
type RenderSystemBuilderOption func(*renderSystemConfig)

// WithLogger sets the logger used by the render system.
//
// Parameters:
//   - logger: the logger; nil keeps the default
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the logger
func WithLogger(logger *slog.Logger) RenderSystemBuilderOption {
	return func(c *renderSystemConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLabelPrefix prefixes every GPU resource label, e.g. with the application name.
func WithLabelPrefix(prefix string) RenderSystemBuilderOption {
	return func(c *renderSystemConfig) {
		c.labelPrefix = prefix
	}
}

func newRenderSystemConfig(options []RenderSystemBuilderOption) renderSystemConfig {
	c := renderSystemConfig{logger: slog.Default().With("component", "renderer")}
	for _, opt := range options {
		opt(&c)
	}
	return c
}
