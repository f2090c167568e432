package tile

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
)

// LoadStatus is the content state of a tile.
type LoadStatus int

const (
	NotLoaded LoadStatus = iota
	Queued
	Loading
	Ready
	NotFound
	Abandoned
)

func (s LoadStatus) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Queued:
		return "Queued"
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case NotFound:
		return "NotFound"
	case Abandoned:
		return "Abandoned"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// ID locates a tile within its tree: the depth and the integer cell coordinates at that depth.
// The root is 0/0/0/0; child octant i of x/y/z is 2x+(i&1), 2y+(i>>1&1), 2z+(i>>2&1).
type ID struct {
	Depth   int
	X, Y, Z int
}

func (id ID) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", id.Depth, id.X, id.Y, id.Z)
}

func (id ID) child(octant int) ID {
	return ID{
		Depth: id.Depth + 1,
		X:     2*id.X + octant&1,
		Y:     2*id.Y + octant>>1&1,
		Z:     2*id.Z + octant>>2&1,
	}
}

// Tile is a node of a tile tree. Tiles are mutated only by the goroutine that runs the
// admin's frames.
type Tile struct {
	tree   *Tree
	parent *Tile
	id     ID
	rng    common.Range3d

	status     LoadStatus
	generation uint64
	marker     *UsageMarker
	children   []*Tile
	graphics   []renderer.Graphic
	failed     int
}

func newTile(tree *Tree, parent *Tile, id ID, rng common.Range3d) *Tile {
	return &Tile{
		tree:   tree,
		parent: parent,
		id:     id,
		rng:    rng,
		marker: NewUsageMarker(tree.tracker),
	}
}

// ID returns the tile's position in its tree.
func (t *Tile) ID() ID { return t.id }

// Tree returns the tree the tile belongs to.
func (t *Tile) Tree() *Tree { return t.tree }

// Parent returns the parent tile, or nil for the root.
func (t *Tile) Parent() *Tile { return t.parent }

// Range returns the tile's volume.
func (t *Tile) Range() common.Range3d { return t.rng }

// Depth returns the tile's depth; the root is at depth 0.
func (t *Tile) Depth() int { return t.id.Depth }

// Status returns the tile's content state.
func (t *Tile) Status() LoadStatus { return t.status }

// Generation changes every time the tile is abandoned. A load result is only applied to a
// tile whose generation still matches the one recorded when the load was requested.
func (t *Tile) Generation() uint64 { return t.generation }

// Marker returns the tile's usage marker.
func (t *Tile) Marker() *UsageMarker { return t.marker }

// Children returns the tile's children, or nil if it has not been expanded.
func (t *Tile) Children() []*Tile { return t.children }

// Graphics returns the graphics created from the tile's content.
func (t *Tile) Graphics() []renderer.Graphic { return t.graphics }

// FailedPrimitives returns how many primitives of the tile's content could not be decoded.
func (t *Tile) FailedPrimitives() int { return t.failed }

// IsLeaf reports whether the tile is at the tree's maximum depth.
func (t *Tile) IsLeaf() bool { return t.id.Depth >= t.tree.maxDepth }

// IsReady reports whether the tile's content is loaded.
func (t *Tile) IsReady() bool { return t.status == Ready }

// isSettled reports whether no load is outstanding or possible for the tile.
func (t *Tile) isSettled() bool { return t.status == Ready || t.status == NotFound }

// ensureChildren creates the eight octant children of a ready interior tile.
func (t *Tile) ensureChildren() []*Tile {
	if t.children != nil || t.IsLeaf() || t.status != Ready {
		return t.children
	}
	t.children = make([]*Tile, 8)
	for i := range t.children {
		t.children[i] = newTile(t.tree, t, t.id.child(i), t.rng.Octant(i))
	}
	return t.children
}

// setContent installs decoded graphics and makes the tile Ready.
func (t *Tile) setContent(graphics []renderer.Graphic, failed int) {
	t.releaseGraphics()
	t.graphics = graphics
	t.failed = failed
	t.status = Ready
}

func (t *Tile) setNotFound() {
	t.releaseGraphics()
	t.status = NotFound
}

func (t *Tile) releaseGraphics() {
	for _, g := range t.graphics {
		g.Release()
	}
	t.graphics = nil
}

// abandon releases everything the tile holds. Pending loads for it become stale.
func (t *Tile) abandon() {
	t.disposeChildren()
	t.releaseGraphics()
	t.marker.Discard()
	t.status = Abandoned
	t.generation++
}

// disposeChildren drops every descendant, returning how many tiles were dropped.
func (t *Tile) disposeChildren() int {
	n := 0
	for _, c := range t.children {
		n += 1 + c.countDescendants()
		c.abandon()
	}
	t.children = nil
	return n
}

func (t *Tile) countDescendants() int {
	n := 0
	for _, c := range t.children {
		n += 1 + c.countDescendants()
	}
	return n
}

// prune drops the children of every tile under t that no viewport uses and that has been idle
// for longer than expiration. It returns the number of tiles dropped.
func (t *Tile) prune(now time.Time, expiration time.Duration) int {
	if t.children == nil {
		return 0
	}
	if t.marker.IsExpired(now) && idleFor(t.marker, now, expiration) {
		return t.disposeChildren()
	}
	n := 0
	for _, c := range t.children {
		n += c.prune(now, expiration)
	}
	return n
}

// idleFor reports whether the marker was last touched more than d before now.
func idleFor(m *UsageMarker, now time.Time, d time.Duration) bool {
	last := m.LastTouched()
	return last.IsZero() || now.Sub(last) > d
}

// walk visits t and every descendant depth first.
func (t *Tile) walk(fn func(*Tile)) {
	fn(t)
	for _, c := range t.children {
		c.walk(fn)
	}
}
