package tile

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-tiles/engine/loader"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
)

// AdminBuilderOption is a functional option for configuring an Admin.
type AdminBuilderOption func(*Admin)

// WithProps sets the admin's expiration times and load limits. The props are normalized when
// the admin is built.
func WithProps(props Props) AdminBuilderOption {
	return func(a *Admin) {
		a.props = props
	}
}

// WithRenderSystem sets where graphics for decoded tiles are created.
func WithRenderSystem(rs renderer.RenderSystem) AdminBuilderOption {
	return func(a *Admin) {
		a.renderSystem = rs
	}
}

// WithLoader sets the loader tile content is requested from. The admin drains it every frame
// and must be its only consumer. A loader supplied here is not closed by Admin.Close.
func WithLoader(l loader.Loader) AdminBuilderOption {
	return func(a *Admin) {
		a.loader = l
	}
}

// WithLogger sets the admin's logger.
func WithLogger(logger *slog.Logger) AdminBuilderOption {
	return func(a *Admin) {
		if logger != nil {
			a.logger = logger
		}
	}
}
