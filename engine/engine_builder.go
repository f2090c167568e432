package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-tiles/engine/tile"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithAdmin sets the tile admin whose frames the engine runs.
//
// Parameters:
//   - admin: the admin to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAdmin(admin *tile.Admin) EngineBuilderOption {
	return func(e *engine) {
		e.admin = admin
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithFrameRate sets the number of frames run per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameInterval = frameInterval(fps)
	}
}

// WithLogger sets the logger for engine and profiler output.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
