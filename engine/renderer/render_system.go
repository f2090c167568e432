package renderer

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

var ErrEmptyMesh = errors.New("mesh has no vertices")

// Graphic is the renderable form of one decoded mesh. It owns whatever GPU resources were
// created for the mesh until Release is called.
type Graphic interface {
	// Label returns the debug label the graphic was created with.
	Label() string

	// ByteSize returns the number of bytes of GPU memory the graphic holds.
	ByteSize() uint64

	// IndexCount returns the number of indices to draw.
	IndexCount() int

	// Release frees the graphic's resources. Calling it more than once has no effect.
	Release()
}

// RenderSystem turns decoded meshes into graphics.
type RenderSystem interface {
	// CreateGraphic uploads a mesh.
	//
	// Parameters:
	//   - m: the decoded mesh; it is not retained
	//   - label: a debug label for the resources created
	//
	// Returns:
	//   - Graphic: the graphic, owned by the caller
	//   - error: ErrEmptyMesh for meshes without vertices, or a backend error
	CreateGraphic(m *mesh.Mesh, label string) (Graphic, error)

	// Stats returns the number of live graphics and the bytes they hold.
	Stats() RenderStats
}

// RenderStats summarises the graphics a render system currently holds.
type RenderStats struct {
	Graphics int
	Bytes    uint64
}

// residency tracks live graphics for Stats. Shared by every RenderSystem implementation.
type residency struct {
	mu    sync.Mutex
	stats RenderStats
}

func (r *residency) add(bytes uint64) {
	r.mu.Lock()
	r.stats.Graphics++
	r.stats.Bytes += bytes
	r.mu.Unlock()
}

func (r *residency) remove(bytes uint64) {
	r.mu.Lock()
	r.stats.Graphics--
	r.stats.Bytes -= bytes
	r.mu.Unlock()
}

func (r *residency) snapshot() RenderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// headlessRenderSystem packs meshes without a GPU. Used by tools and tests that need graphic
// accounting but no device.
type headlessRenderSystem struct {
	residency
	logger *slog.Logger
}

var _ RenderSystem = &headlessRenderSystem{}

// NewHeadlessRenderSystem creates a RenderSystem that packs vertex and index data in memory.
//
// Parameters:
//   - options: functional options (logger)
//
// Returns:
//   - RenderSystem: the headless render system
func NewHeadlessRenderSystem(options ...RenderSystemBuilderOption) RenderSystem {
	cfg := newRenderSystemConfig(options)
	return &headlessRenderSystem{logger: cfg.logger}
}

func (s *headlessRenderSystem) CreateGraphic(m *mesh.Mesh, label string) (Graphic, error) {
	if m.VertexCount() == 0 {
		return nil, ErrEmptyMesh
	}
	vertexData, indexData, indexCount := packedBytes(m)
	g := &memoryGraphic{
		owner:      s,
		label:      label,
		vertexData: vertexData,
		indexData:  indexData,
		indexCount: indexCount,
	}
	s.add(g.ByteSize())
	s.logger.Debug("created graphic", "label", label, "bytes", g.ByteSize())
	return g, nil
}

func (s *headlessRenderSystem) Stats() RenderStats { return s.snapshot() }

type memoryGraphic struct {
	owner      *headlessRenderSystem
	label      string
	vertexData []byte
	indexData  []byte
	indexCount int
	released   bool
}

func (g *memoryGraphic) Label() string   { return g.label }
func (g *memoryGraphic) IndexCount() int { return g.indexCount }

func (g *memoryGraphic) ByteSize() uint64 {
	return uint64(len(g.vertexData) + len(g.indexData))
}

func (g *memoryGraphic) Release() {
	if g.released {
		return
	}
	g.released = true
	g.owner.remove(g.ByteSize())
	g.vertexData, g.indexData = nil, nil
}
