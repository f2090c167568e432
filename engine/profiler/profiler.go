package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Residency is what the tile system currently holds.
type Residency struct {
	Trees          int
	Tiles          int
	ReadyTiles     int
	ActiveRequests int
	QueuedRequests int
	Graphics       int
	GraphicBytes   uint64
}

// Profiler tracks frame rate, memory, and tile residency for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         *slog.Logger
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		logger:         slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	p.logger = p.logger.With("component", "profiler")
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the tile residency reported by residency.
//
// Parameters:
//   - residency: called only when stats are logged; may be nil
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(residency func() Residency) bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	var r Residency
	if residency != nil {
		r = residency()
	}

	p.logger.Info("frame stats",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_pause_us", lastPauseUs,
		"gc_max_pause_us", maxPauseUs,
		"sys_mb", sysMB,
		"trees", r.Trees,
		"tiles", r.Tiles,
		"ready_tiles", r.ReadyTiles,
		"active_requests", r.ActiveRequests,
		"queued_requests", r.QueuedRequests,
		"graphics", r.Graphics,
		"graphic_bytes", r.GraphicBytes,
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
