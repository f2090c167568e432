package tile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

const DefaultMaxDepth = 4

// ErrContentNotFound tells the admin that a tile has no content. The tile becomes NotFound
// rather than being retried.
var ErrContentNotFound = errors.New("tile content not found")

// ContentSource supplies the encoded content of tiles. FetchTileContent runs on loader worker
// goroutines and must be safe for concurrent use.
type ContentSource interface {
	FetchTileContent(ctx context.Context, treeID string, id ID) ([]byte, error)
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(ctx context.Context, treeID string, id ID) ([]byte, error)

func (f ContentSourceFunc) FetchTileContent(ctx context.Context, treeID string, id ID) ([]byte, error) {
	return f(ctx, treeID, id)
}

// DirContentSource reads tile content from <dir>/<treeID>/<depth>/<x>_<y>_<z><ext>. A missing
// file is reported as ErrContentNotFound.
type DirContentSource struct {
	Dir string
	Ext string
}

func (s DirContentSource) FetchTileContent(ctx context.Context, treeID string, id ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext := common.Coalesce(s.Ext, ".b3dm")
	path := filepath.Join(s.Dir, treeID, fmt.Sprint(id.Depth), fmt.Sprintf("%d_%d_%d%s", id.X, id.Y, id.Z, ext))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, path)
	}
	return data, err
}

// Tree is an octree of tiles covering a fixed range. A tree is owned by at most one Admin.
type Tree struct {
	id       string
	name     string
	rng      common.Range3d
	maxDepth int
	reality  bool
	source   ContentSource

	tracker  *UsageTracker
	root     *Tile
	disposed bool
}

// NewTree creates a tree whose root tile covers rng.
//
// Parameters:
//   - id: identifies the tree to its content source and in load keys
//   - rng: the volume of the root tile
//   - options: a variadic list of TreeBuilderOption functions
//
// Returns:
//   - *Tree: the new tree
func NewTree(id string, rng common.Range3d, options ...TreeBuilderOption) *Tree {
	t := &Tree{
		id:       id,
		rng:      rng,
		maxDepth: DefaultMaxDepth,
	}
	for _, option := range options {
		option(t)
	}
	t.name = common.Coalesce(t.name, id)
	t.root = newTile(t, nil, ID{}, rng)
	return t
}

// ID returns the tree's identifier.
func (t *Tree) ID() string { return t.id }

// Name returns the tree's display name, which defaults to its ID.
func (t *Tree) Name() string { return t.name }

// Range returns the volume covered by the tree.
func (t *Tree) Range() common.Range3d { return t.rng }

// MaxDepth returns the depth of the tree's leaves.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// IsRealityModel reports whether the tree uses the reality tile expiration time.
func (t *Tree) IsRealityModel() bool { return t.reality }

// RootTile returns the root tile.
func (t *Tree) RootTile() *Tile { return t.root }

// IsDisposed reports whether Dispose has been called.
func (t *Tree) IsDisposed() bool { return t.disposed }

// Dispose abandons every tile of the tree. A disposed tree selects nothing and ignores load
// results. Dispose is idempotent.
func (t *Tree) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.root.abandon()
}

// attach makes tracker index the usage of the tree's tiles.
func (t *Tree) attach(tracker *UsageTracker) {
	t.tracker = tracker
	t.root.marker.tracker = tracker
}

// loadKey identifies a tile's content in the loader.
func (t *Tree) loadKey(id ID) string {
	return t.id + "/" + id.String()
}

// TileCount returns the number of tiles currently in the tree.
func (t *Tree) TileCount() int {
	if t.disposed {
		return 0
	}
	return 1 + t.root.countDescendants()
}

// TreeSet is a set of trees.
type TreeSet struct {
	trees map[*Tree]struct{}
}

// NewTreeSet creates an empty set.
func NewTreeSet() *TreeSet {
	return &TreeSet{trees: make(map[*Tree]struct{})}
}

// Add inserts t into the set.
func (s *TreeSet) Add(t *Tree) { s.trees[t] = struct{}{} }

// Has reports whether t is in the set.
func (s *TreeSet) Has(t *Tree) bool {
	_, ok := s.trees[t]
	return ok
}

// Len returns the number of trees in the set.
func (s *TreeSet) Len() int { return len(s.trees) }
