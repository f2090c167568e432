package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRenderSystem uploads tile meshes into WebGPU vertex and index buffers.
type wgpuRenderSystem struct {
	residency
	mu sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	logger      *slog.Logger
	labelPrefix string
}

var _ RenderSystem = &wgpuRenderSystem{}

// NewWGPURenderSystem creates a RenderSystem backed by a WebGPU device. The device and queue
// are borrowed; the render system never releases them.
//
// Parameters:
//   - device: the device buffers are created on
//   - queue: the queue buffer contents are written through
//   - options: functional options (logger, label prefix)
//
// Returns:
//   - RenderSystem: the WebGPU render system
func NewWGPURenderSystem(device *wgpu.Device, queue *wgpu.Queue, options ...RenderSystemBuilderOption) RenderSystem {
	cfg := newRenderSystemConfig(options)
	return &wgpuRenderSystem{
		device:      device,
		queue:       queue,
		logger:      cfg.logger,
		labelPrefix: cfg.labelPrefix,
	}
}

func (s *wgpuRenderSystem) CreateGraphic(m *mesh.Mesh, label string) (Graphic, error) {
	if m.VertexCount() == 0 {
		return nil, ErrEmptyMesh
	}
	vertexData, indexData, indexCount := packedBytes(m)
	label = s.labelPrefix + label

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &wgpuGraphic{owner: s, label: label, indexCount: indexCount}

	buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vertex buffer for %s: %w", label, err)
	}
	if err := s.queue.WriteBuffer(buf, 0, vertexData); err != nil {
		buf.Release()
		return nil, fmt.Errorf("writing vertex buffer for %s: %w", label, err)
	}
	g.vertexBuffer = buf
	g.size += uint64(len(vertexData))

	if len(indexData) > 0 {
		buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label + " Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			g.vertexBuffer.Release()
			return nil, fmt.Errorf("creating index buffer for %s: %w", label, err)
		}
		if err := s.queue.WriteBuffer(buf, 0, indexData); err != nil {
			buf.Release()
			g.vertexBuffer.Release()
			return nil, fmt.Errorf("writing index buffer for %s: %w", label, err)
		}
		g.indexBuffer = buf
		g.size += uint64(len(indexData))
	}

	s.add(g.size)
	s.logger.Debug("uploaded graphic", "label", label, "bytes", g.size, "indices", indexCount)
	return g, nil
}

func (s *wgpuRenderSystem) Stats() RenderStats { return s.snapshot() }

// wgpuGraphic owns the vertex and index buffers of one mesh.
type wgpuGraphic struct {
	owner *wgpuRenderSystem

	label        string
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
	size         uint64
}

func (g *wgpuGraphic) Label() string    { return g.label }
func (g *wgpuGraphic) ByteSize() uint64 { return g.size }
func (g *wgpuGraphic) IndexCount() int  { return g.indexCount }

// VertexBuffer returns the GPU vertex buffer, or nil once released.
func (g *wgpuGraphic) VertexBuffer() *wgpu.Buffer { return g.vertexBuffer }

// IndexBuffer returns the GPU index buffer, or nil if the mesh has no indices or was released.
func (g *wgpuGraphic) IndexBuffer() *wgpu.Buffer { return g.indexBuffer }

func (g *wgpuGraphic) Release() {
	g.owner.mu.Lock()
	defer g.owner.mu.Unlock()

	if g.vertexBuffer == nil {
		return
	}
	g.vertexBuffer.Release()
	g.vertexBuffer = nil
	if g.indexBuffer != nil {
		g.indexBuffer.Release()
		g.indexBuffer = nil
	}
	g.owner.remove(g.size)
}
