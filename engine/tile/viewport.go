package tile

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

const DefaultLODFactor = 2.0

// Viewport selects the tiles it displays from the trees it views. The zero frustum sees
// everything.
type Viewport struct {
	mu sync.Mutex

	id    ViewportID
	name  string
	admin *Admin

	frustum   common.Frustum
	eye       common.Point3d
	lodFactor float64
	trees     []*Tree

	needsSelection bool
	disposed       bool
	selected       []*Tile
}

// NewViewport creates a viewport. It selects nothing until it is added to an Admin.
//
// Parameters:
//   - options: a variadic list of ViewportBuilderOption functions
//
// Returns:
//   - *Viewport: the new viewport
func NewViewport(options ...ViewportBuilderOption) *Viewport {
	v := &Viewport{
		lodFactor:      DefaultLODFactor,
		needsSelection: true,
	}
	for _, option := range options {
		option(v)
	}
	return v
}

// ID returns the viewport's identity. It is zero until the viewport is added to an Admin.
func (v *Viewport) ID() ViewportID { return v.id }

// Name returns the viewport's name.
func (v *Viewport) Name() string { return v.name }

// IsDisposed reports whether the viewport has been disposed.
func (v *Viewport) IsDisposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposed
}

// NeedsSelection reports whether the next frame will re-select the viewport's tiles.
func (v *Viewport) NeedsSelection() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.needsSelection
}

// Selected returns the tiles chosen by the most recent selection.
func (v *Viewport) Selected() []*Tile {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*Tile(nil), v.selected...)
}

// DiscloseTileTrees adds every tree the viewport displays to set. It does not change any
// state.
func (v *Viewport) DiscloseTileTrees(set *TreeSet) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	for _, t := range v.trees {
		if !t.IsDisposed() {
			set.Add(t)
		}
	}
}

// ChangeViewedTrees replaces the trees the viewport displays.
func (v *Viewport) ChangeViewedTrees(trees ...*Tree) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trees = append([]*Tree(nil), trees...)
	v.needsSelection = true
}

// SetFrustum replaces the volume the viewport can see.
func (v *Viewport) SetFrustum(f common.Frustum, eye common.Point3d) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frustum = f
	v.eye = eye
	v.needsSelection = true
}

// SetView points a perspective camera at target.
//
// Parameters:
//   - eye: the camera position
//   - target: the point the camera looks at
//   - up: the camera's up direction
//   - fovY: vertical field of view in radians
//   - aspect: width over height
//   - near, far: clip distances
func (v *Viewport) SetView(eye, target, up common.Point3d, fovY, aspect, near, far float32) {
	viewProj := common.ViewProjection(eye, target, up, fovY, aspect, near, far)
	v.SetFrustum(common.ExtractFrustumFromMatrix(viewProj), eye)
}

// InvalidateScene makes the next frame re-select the viewport's tiles.
func (v *Viewport) InvalidateScene() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.needsSelection = true
}

// Dispose detaches the viewport from its admin and clears its tile usage.
func (v *Viewport) Dispose() {
	v.mu.Lock()
	admin := v.admin
	v.mu.Unlock()
	if admin != nil {
		admin.RemoveViewport(v)
		return
	}
	v.mu.Lock()
	v.disposed = true
	v.mu.Unlock()
}

// SelectTiles clears the viewport's usage, then marks every tile it visits as in use as of
// now and requests content for tiles that need it.
//
// Parameters:
//   - now: the time recorded in the visited tiles' markers
//
// Returns:
//   - []*Tile: the tiles to display
func (v *Viewport) SelectTiles(now time.Time) []*Tile {
	v.mu.Lock()
	admin := v.admin
	v.mu.Unlock()
	if admin == nil {
		return nil
	}
	admin.mu.Lock()
	defer admin.mu.Unlock()
	admin.marking.Store(true)
	defer admin.marking.Store(false)
	return v.selectLocked(now)
}

// selectLocked runs with the admin lock held and the mark phase open.
func (v *Viewport) selectLocked(now time.Time) []*Tile {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed || v.admin == nil {
		return nil
	}
	v.admin.tracker.ClearViewport(v.id)
	v.selected = v.selected[:0]
	for _, t := range v.trees {
		if !t.IsDisposed() && t.tracker == v.admin.tracker {
			v.selectTile(t.root, now)
		}
	}
	v.needsSelection = false
	return append([]*Tile(nil), v.selected...)
}

func (v *Viewport) selectTile(t *Tile, now time.Time) {
	if !v.frustum.IntersectsRange(t.rng) {
		return
	}
	t.marker.Mark(v.id, now)

	switch t.status {
	case NotLoaded:
		v.admin.requestContent(t)
		return
	case Ready:
	default:
		return
	}

	if t.IsLeaf() || !v.wantsRefinement(t) {
		v.selected = append(v.selected, t)
		return
	}

	var visible []*Tile
	settled := true
	for _, c := range t.ensureChildren() {
		if v.frustum.IntersectsRange(c.rng) {
			visible = append(visible, c)
			settled = settled && c.isSettled()
		}
	}
	if settled {
		for _, c := range visible {
			v.selectTile(c, now)
		}
		return
	}

	// Draw the parent until every visible child can replace it.
	v.selected = append(v.selected, t)
	for _, c := range visible {
		c.marker.Mark(v.id, now)
		if c.status == NotLoaded {
			v.admin.requestContent(c)
		}
	}
}

func (v *Viewport) wantsRefinement(t *Tile) bool {
	return v.eye.Distance(t.rng.Center()) < t.rng.Radius()*v.lodFactor
}
