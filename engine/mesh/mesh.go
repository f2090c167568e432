// Package mesh holds the geometry produced by decoding a tile: quantized positions,
// colour and feature tables, oct-encoded normals, UV params, triangles and polylines.
// A Mesh is owned by the decode call that creates it until it is handed to a render
// system, which derives GPU buffers from it.
package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

// PrimitiveType is the kind of geometry a mesh holds.
type PrimitiveType int

const (
	PrimitiveMesh PrimitiveType = iota
	PrimitivePolyline
	PrimitivePoint
)

func (t PrimitiveType) String() string {
	switch t {
	case PrimitiveMesh:
		return "Mesh"
	case PrimitivePolyline:
		return "Polyline"
	case PrimitivePoint:
		return "Point"
	default:
		return fmt.Sprintf("PrimitiveType(%d)", int(t))
	}
}

// Polyline is a run of vertex indices. StartDistance is the cumulative length of the
// line pattern at the first vertex, so patterns continue across split polylines.
type Polyline struct {
	StartDistance float32
	Indices       []uint32
}

// Mesh is a decoded, renderable primitive.
type Mesh struct {
	DisplayParams *DisplayParams
	Type          PrimitiveType
	Is2d          bool
	IsPlanar      bool

	// Points are the quantized vertex positions.
	Points QPoint3dList
	// ColorMap holds the distinct vertex colours; Colors indexes into it per vertex.
	// An empty Colors slice means every vertex uses entry 0.
	ColorMap *ColorMap
	Colors   []uint16
	// Features is nil when the mesh carries no feature table.
	Features *Features

	// Indices holds triangle vertex indices, three per triangle.
	Indices   []uint32
	Normals   []OctEncodedNormal
	UVParams  [][2]float32
	Polylines []Polyline
}

// NewMesh creates an empty mesh of the given type.
//
// Parameters:
//   - params: how the mesh is drawn
//   - typ: the primitive type
//   - options: functional options (features, 2d, planar)
//
// Returns:
//   - *Mesh: the empty mesh
func NewMesh(params *DisplayParams, typ PrimitiveType, options ...MeshBuilderOption) *Mesh {
	m := &Mesh{
		DisplayParams: params,
		Type:          typ,
		ColorMap:      NewColorMap(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// AddTriangle appends one triangle.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.Points.Len() }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Range returns the world range of the vertices.
func (m *Mesh) Range() common.Range3d { return m.Points.Range() }

// ColorIndex returns the colour table index used by vertex i.
func (m *Mesh) ColorIndex(i int) uint16 {
	if i < len(m.Colors) {
		return m.Colors[i]
	}
	return 0
}
