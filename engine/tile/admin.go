package tile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/loader"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
)

var (
	ErrSweepDuringMark = errors.New("cannot sweep while tiles are being marked")
	ErrTreeOwned       = errors.New("tree belongs to another admin")
	ErrViewportOwned   = errors.New("viewport belongs to another admin")
)

// FrameStats describes one call to RenderFrame.
type FrameStats struct {
	// Selected is the number of tiles chosen for display by viewports that re-selected.
	Selected int
	// Requested is the number of content loads started.
	Requested int
	// Applied is the number of load results installed into tiles.
	Applied int
	// Stale is the number of load results dropped because their tile was abandoned.
	Stale int
	// Swept reports whether the expiration sweep ran.
	Swept bool
	SweepStats
}

// SweepStats describes one expiration sweep.
type SweepStats struct {
	PrunedTiles   int
	DisposedTrees int
}

// Stats is a snapshot of everything an admin holds.
type Stats struct {
	Trees     int
	Viewports int
	Tiles     int
	Ready     int
	Loader    loader.Stats
	Render    renderer.RenderStats
}

// loadTicket is the loader tag of a content request. A result whose ticket generation no
// longer matches its tile is stale.
type loadTicket struct {
	tile       *Tile
	generation uint64
}

// Admin owns a set of trees and viewports and drives them through frames. Each frame marks
// the tiles viewports use, installs finished loads, and periodically disposes what has gone
// unused for longer than the configured expiration times.
type Admin struct {
	mu      sync.Mutex
	marking atomic.Bool

	props        Props
	tracker      *UsageTracker
	loader       loader.Loader
	ownsLoader   bool
	renderSystem renderer.RenderSystem
	logger       *slog.Logger

	trees      []*Tree
	firstSeen  map[*Tree]time.Time
	viewports  []*Viewport
	nextVPID   ViewportID
	lastSweep  time.Time
	frameCount uint64
	requested  int
}

// NewAdmin creates an admin. Without options it uses DefaultProps, a headless render system,
// and a glTF loader sized from the props.
//
// Parameters:
//   - options: a variadic list of AdminBuilderOption functions
//
// Returns:
//   - *Admin: the new admin
func NewAdmin(options ...AdminBuilderOption) *Admin {
	a := &Admin{
		props:     DefaultProps(),
		tracker:   NewUsageTracker(),
		firstSeen: make(map[*Tree]time.Time),
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(a)
	}
	a.props = a.props.Normalize()
	a.logger = a.logger.With("component", "tile")

	if a.renderSystem == nil {
		a.renderSystem = renderer.NewHeadlessRenderSystem(renderer.WithLogger(a.logger))
	}
	if a.loader == nil {
		a.loader = loader.NewLoader(loader.BackendTypeGLTF,
			loader.WithMaxActive(a.props.MaxActiveRequests),
			loader.WithCacheTTL(a.props.ContentCacheTTL),
			loader.WithLogger(a.logger),
		)
		a.ownsLoader = true
	}
	return a
}

// Props returns the admin's normalized settings.
func (a *Admin) Props() Props { return a.props }

// Tracker returns the tracker indexing tile usage across the admin's trees.
func (a *Admin) Tracker() *UsageTracker { return a.tracker }

// AddTree registers a tree.
//
// Parameters:
//   - t: the tree to register
//
// Returns:
//   - error: ErrTreeOwned if t is registered with another admin
func (a *Admin) AddTree(t *Tree) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t.tracker == a.tracker {
		return nil
	}
	if t.tracker != nil {
		return fmt.Errorf("%w: %s", ErrTreeOwned, t.id)
	}
	t.attach(a.tracker)
	a.trees = append(a.trees, t)
	a.logger.Debug("tile tree added", "tree", t.name)
	return nil
}

// Trees returns the registered trees that have not been disposed.
func (a *Admin) Trees() []*Tree {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Tree(nil), a.trees...)
}

// AddViewport registers a viewport and assigns its ID.
//
// Parameters:
//   - v: the viewport to register
//
// Returns:
//   - error: ErrViewportOwned if v is registered with another admin
func (a *Admin) AddViewport(v *Viewport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.admin == a {
		return nil
	}
	if v.admin != nil {
		return fmt.Errorf("%w: %s", ErrViewportOwned, v.name)
	}
	a.nextVPID++
	v.id = a.nextVPID
	v.admin = a
	v.disposed = false
	v.needsSelection = true
	a.viewports = append(a.viewports, v)
	return nil
}

// RemoveViewport unregisters v and clears every tile usage it recorded. The tiles it
// displayed become candidates for expiration.
func (a *Admin) RemoveViewport(v *Viewport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.admin != a {
		return
	}
	a.tracker.ClearViewport(v.id)
	for i, other := range a.viewports {
		if other == v {
			a.viewports = append(a.viewports[:i], a.viewports[i+1:]...)
			break
		}
	}
	v.admin = nil
	v.disposed = true
	v.selected = nil
}

// RenderFrame runs one frame: viewports that need it re-select their tiles, finished loads are
// installed, and the expiration sweep runs if the sweep interval has elapsed since the last
// one.
//
// Parameters:
//   - now: the frame time; must not go backwards between frames
//
// Returns:
//   - FrameStats: what the frame did
func (a *Admin) RenderFrame(now time.Time) FrameStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameCount++

	var stats FrameStats
	a.requested = 0

	a.marking.Store(true)
	for _, v := range a.viewports {
		if v.NeedsSelection() {
			stats.Selected += len(v.selectLocked(now))
		}
	}
	a.marking.Store(false)

	stats.Applied, stats.Stale = a.applyResults()
	stats.Requested = a.requested

	if a.lastSweep.IsZero() || now.Sub(a.lastSweep) >= a.props.SweepInterval {
		stats.SweepStats = a.sweepLocked(now)
		stats.Swept = true
		a.lastSweep = now
	}

	a.logger.Debug("frame", "frame", a.frameCount, "selected", stats.Selected,
		"requested", stats.Requested, "applied", stats.Applied, "stale", stats.Stale)
	return stats
}

// Sweep prunes unused tiles and disposes trees that no viewport has displayed for longer
// than the tree expiration time. RenderFrame sweeps on its own; Sweep forces an extra pass.
//
// Parameters:
//   - now: the time idleness is measured against
//
// Returns:
//   - SweepStats: what was dropped
//   - error: ErrSweepDuringMark if a viewport is selecting tiles
func (a *Admin) Sweep(now time.Time) (SweepStats, error) {
	if a.marking.Load() {
		return SweepStats{}, ErrSweepDuringMark
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sweepLocked(now), nil
}

func (a *Admin) sweepLocked(now time.Time) SweepStats {
	var stats SweepStats

	disclosed := NewTreeSet()
	for _, v := range a.viewports {
		v.DiscloseTileTrees(disclosed)
	}

	kept := a.trees[:0]
	for _, t := range a.trees {
		if a.treeExpired(t, disclosed, now) {
			tiles := t.TileCount()
			t.Dispose()
			delete(a.firstSeen, t)
			stats.DisposedTrees++
			stats.PrunedTiles += tiles
			a.logger.Info("tile tree disposed", "tree", t.name, "tiles", tiles)
			continue
		}
		kept = append(kept, t)

		expiration := a.props.TileExpirationTime
		if t.reality {
			expiration = a.props.RealityTileExpirationTime
		}
		stats.PrunedTiles += t.root.prune(now, expiration)
	}
	clear(a.trees[len(kept):])
	a.trees = kept

	if stats.PrunedTiles > 0 {
		a.logger.Debug("tiles pruned", "tiles", stats.PrunedTiles, "trees", stats.DisposedTrees)
	}
	return stats
}

// treeExpired reports whether no viewport displays t and its root has been idle for longer
// than the tree expiration time. A tree that was never displayed is idle from the first
// sweep that sees it.
func (a *Admin) treeExpired(t *Tree, disclosed *TreeSet, now time.Time) bool {
	if t.disposed {
		return true
	}
	first, ok := a.firstSeen[t]
	if !ok {
		first = now
		a.firstSeen[t] = now
	}
	if disclosed.Has(t) || !t.root.marker.IsExpired(now) {
		return false
	}
	last := t.root.marker.LastTouched()
	if last.IsZero() {
		last = first
	}
	return now.Sub(last) > a.props.TileTreeExpirationTime
}

// requestContent starts loading t's content.
func (a *Admin) requestContent(t *Tile) {
	tree := t.tree
	if tree.source == nil {
		t.setNotFound()
		return
	}

	ticket := loadTicket{tile: t, generation: t.generation}
	id := t.id
	t.status = Queued
	ok := a.loader.Request(loader.Request{
		Key: tree.loadKey(id),
		Fetch: func(ctx context.Context) ([]byte, error) {
			return tree.source.FetchTileContent(ctx, tree.id, id)
		},
		Tag: ticket,
		OnStart: func() {
			if t.generation == ticket.generation && t.status == Queued {
				t.status = Loading
			}
		},
	})
	if !ok {
		// An earlier load for the same key is still outstanding; retry on a later selection.
		t.status = NotLoaded
		return
	}
	a.requested++
}

// applyResults installs every finished load. It is the only consumer of the loader.
func (a *Admin) applyResults() (applied, stale int) {
	for _, r := range a.loader.Drain() {
		ticket, ok := r.Tag.(loadTicket)
		if !ok {
			continue
		}
		t := ticket.tile
		if t.tree.disposed || t.status == Abandoned || t.generation != ticket.generation {
			stale++
			continue
		}
		a.apply(t, r)
		applied++
		a.invalidateViewers(t.tree)
	}
	return applied, stale
}

func (a *Admin) apply(t *Tile, r loader.Result) {
	if r.Err != nil {
		level := slog.LevelWarn
		if errors.Is(r.Err, ErrContentNotFound) {
			level = slog.LevelDebug
		}
		a.logger.Log(context.Background(), level, "tile content unavailable", "tile", r.Key, "error", r.Err)
		t.setNotFound()
		return
	}
	t.setContent(a.createGraphics(r.Key, r.Content), r.Content.Failed)
}

func (a *Admin) createGraphics(key string, content *tileio.Content) []renderer.Graphic {
	graphics := make([]renderer.Graphic, 0, len(content.Meshes))
	for i, m := range content.Meshes {
		g, err := a.renderSystem.CreateGraphic(m, fmt.Sprintf("%s#%d", key, i))
		if err != nil {
			a.logger.Debug("mesh skipped", "tile", key, "mesh", i, "error", err)
			continue
		}
		graphics = append(graphics, g)
	}
	return graphics
}

func (a *Admin) invalidateViewers(t *Tree) {
	for _, v := range a.viewports {
		v.mu.Lock()
		for _, viewed := range v.trees {
			if viewed == t {
				v.needsSelection = true
				break
			}
		}
		v.mu.Unlock()
	}
}

// Stats returns a snapshot of the admin's trees, tiles, loads, and graphics.
func (a *Admin) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		Trees:     len(a.trees),
		Viewports: len(a.viewports),
		Loader:    a.loader.Stats(),
		Render:    a.renderSystem.Stats(),
	}
	for _, t := range a.trees {
		t.root.walk(func(tile *Tile) {
			s.Tiles++
			if tile.status == Ready {
				s.Ready++
			}
		})
	}
	return s
}

// Close disposes every tree and stops the loader if the admin created it.
func (a *Admin) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.trees {
		t.Dispose()
	}
	a.trees = nil
	if a.ownsLoader {
		a.loader.Close()
	}
}
