package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile"
)

const DefaultFrameRate = 60.0

var (
	ErrNoAdmin        = errors.New("engine has no tile admin")
	ErrAlreadyRunning = errors.New("engine is already running")
)

// engine implements the Engine interface.
// Drives the tile admin's frames on a single goroutine.
type engine struct {
	admin *tile.Admin

	frameRateChannel chan time.Duration // Channel for dynamic frame rate updates
	frameInterval    time.Duration

	running atomic.Bool
	quitMu  sync.Mutex
	quit    chan struct{} // closed by Quit; nil while the engine is stopped

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	frameCallback func(now time.Time, stats tile.FrameStats)

	logger *slog.Logger
}

// Engine is the main entry point for the engine.
// It runs the frame loop that keeps tile selection, loading, and expiration moving.
type Engine interface {
	// Admin returns the tile admin the engine drives.
	//
	// Returns:
	//   - *tile.Admin: the admin, or nil if none was configured
	Admin() *tile.Admin

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameRate sets the number of frames run per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetFrameRate(fps float64)

	// SetFrameCallback registers the function called after each frame, on the frame goroutine.
	// Viewports may be moved from the callback.
	//
	// Parameters:
	//   - callback: receives the frame time and what the frame did
	SetFrameCallback(callback func(now time.Time, stats tile.FrameStats))

	// Run drives frames until ctx is done or Quit is called. It blocks.
	//
	// Parameters:
	//   - ctx: stops the loop when done
	//
	// Returns:
	//   - error: nil after Quit, ctx.Err() after cancellation, ErrNoAdmin or ErrAlreadyRunning,
	//     or the recovered panic of a frame
	Run(ctx context.Context) error

	// Quit stops the current Run. It has no effect while the engine is stopped, so a later
	// Run is not cancelled by an earlier Quit. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (admin, frame rate, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		frameRateChannel: make(chan time.Duration, 1),
		frameInterval:    frameInterval(DefaultFrameRate),
		logger:           slog.Default(),
	}

	for _, opt := range options {
		opt(e)
	}

	e.logger = e.logger.With("component", "engine")
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	return e
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Admin() *tile.Admin {
	return e.admin
}

func (e *engine) Run(ctx context.Context) (err error) {
	if e.admin == nil {
		return ErrNoAdmin
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	// Recover from panics inside a frame so the caller gets an error instead of a crash.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame loop recovered from panic", "panic", r)
			err = fmt.Errorf("frame loop panic: %v", r)
		}
	}()

	quit := e.openQuit()
	defer e.signalQuit()

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	e.logger.Info("engine started", "frame_interval", e.frameInterval)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-quit:
			e.logger.Info("engine stopped", "reason", "quit")
			return nil
		case newRate := <-e.frameRateChannel:
			ticker.Reset(newRate)
			e.frameInterval = newRate
		case now := <-ticker.C:
			e.frame(now)
		}
	}
}

// frame runs one admin frame and reports it.
func (e *engine) frame(now time.Time) {
	stats := e.admin.RenderFrame(now)

	if e.frameCallback != nil {
		e.frameCallback(now, stats)
	}

	if e.profilingEnabled.Load() {
		e.profiler.Tick(e.residency)
	}
}

func (e *engine) residency() profiler.Residency {
	s := e.admin.Stats()
	return profiler.Residency{
		Trees:          s.Trees,
		Tiles:          s.Tiles,
		ReadyTiles:     s.Ready,
		ActiveRequests: s.Loader.Active,
		QueuedRequests: s.Loader.Queued,
		Graphics:       s.Render.Graphics,
		GraphicBytes:   s.Render.Bytes,
	}
}

// Quit signals the running frame loop to stop.
func (e *engine) Quit() {
	e.signalQuit()
}

// openQuit creates the quit channel of one Run.
func (e *engine) openQuit() <-chan struct{} {
	e.quitMu.Lock()
	defer e.quitMu.Unlock()
	e.quit = make(chan struct{})
	return e.quit
}

// signalQuit closes the current quit channel, if any, and forgets it so repeated calls and
// calls after the loop exits do nothing.
func (e *engine) signalQuit() {
	e.quitMu.Lock()
	defer e.quitMu.Unlock()
	if e.quit != nil {
		close(e.quit)
		e.quit = nil
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetFrameRate sets the number of frames run per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetFrameRate(fps float64) {
	newRate := frameInterval(fps)

	if !e.running.Load() {
		e.frameInterval = newRate
		return
	}

	// Non-blocking send - if the channel is full, replace the pending value
	select {
	case e.frameRateChannel <- newRate:
	default:
		select {
		case <-e.frameRateChannel:
		default:
		}
		e.frameRateChannel <- newRate
	}
}

// SetFrameCallback registers the function called after each frame.
func (e *engine) SetFrameCallback(callback func(now time.Time, stats tile.FrameStats)) {
	e.frameCallback = callback
}
