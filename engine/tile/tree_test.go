package tile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirContentSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "city", "1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "city", "1", "1_0_1.b3dm"), []byte("tile"), 0o644))

	src := DirContentSource{Dir: dir}
	data, err := src.FetchTileContent(context.Background(), "city", ID{Depth: 1, X: 1, Y: 0, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)

	_, err = src.FetchTileContent(context.Background(), "city", ID{Depth: 1})
	assert.ErrorIs(t, err, ErrContentNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchTileContent(ctx, "city", ID{Depth: 1, X: 1, Y: 0, Z: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTreeDispose(t *testing.T) {
	tracker := NewUsageTracker()
	tree := NewTree("tree", treeRange, WithName("Tree"), WithRealityModel(true), WithMaxDepth(2))
	tree.attach(tracker)
	assert.Equal(t, "Tree", tree.Name())
	assert.True(t, tree.IsRealityModel())

	root := tree.RootTile()
	root.setContent(nil, 0)
	children := root.ensureChildren()
	require.Len(t, children, 8)
	children[3].setContent(nil, 0)
	require.Len(t, children[3].ensureChildren(), 8)
	assert.Equal(t, 17, tree.TileCount())
	assert.Equal(t, treeRange.Octant(3), children[3].Range())

	children[3].Children()[0].Marker().Mark(1, t0)
	require.Equal(t, 1, tracker.MarkerCount(1))

	tree.Dispose()
	tree.Dispose()
	assert.True(t, tree.IsDisposed())
	assert.Equal(t, 0, tree.TileCount())
	assert.Equal(t, Abandoned, root.Status())
	assert.Equal(t, Abandoned, children[3].Status())
	assert.Equal(t, 0, tracker.MarkerCount(1))
}

func TestLeafHasNoChildren(t *testing.T) {
	tree := NewTree("tree", treeRange, WithMaxDepth(0))
	root := tree.RootTile()
	root.setContent(nil, 0)
	assert.True(t, root.IsLeaf())
	assert.Nil(t, root.ensureChildren())

	other := NewTree("other", treeRange)
	assert.Nil(t, other.RootTile().ensureChildren(), "children wait for content")
	assert.Equal(t, "other", other.Name())
}
