package renderer

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

// PackVertices interleaves a mesh's per-vertex attributes into GPUVertex records.
// Missing attributes are zero: colour index 0, the +Z normal, feature 0 and UV (0, 0).
//
// Parameters:
//   - m: the decoded mesh
//
// Returns:
//   - []GPUVertex: one record per vertex
func PackVertices(m *mesh.Mesh) []GPUVertex {
	n := m.VertexCount()
	verts := make([]GPUVertex, n)
	up := uint16(mesh.EncodeNormal([3]float32{0, 0, 1}))

	var features []uint32
	var uniformFeature uint32
	if m.Features != nil {
		features = m.Features.Indices()
		uniformFeature = m.Features.Uniform()
	}

	for i := range verts {
		v := &verts[i]
		v.Position = m.Points.Points[i]
		v.ColorIndex = m.ColorIndex(i)
		v.Normal = up
		if i < len(m.Normals) {
			v.Normal = uint16(m.Normals[i])
		}
		v.FeatureIndex = uniformFeature
		if i < len(features) {
			v.FeatureIndex = features[i]
		}
		if i < len(m.UVParams) {
			v.UV = m.UVParams[i]
		}
	}
	return verts
}

// PackIndices flattens a mesh's topology into a single index list: triangle lists for
// surface meshes, line-list segment pairs for polylines, and one index per point for point
// strings.
//
// Parameters:
//   - m: the decoded mesh
//
// Returns:
//   - []uint32: the index list
func PackIndices(m *mesh.Mesh) []uint32 {
	switch m.Type {
	case mesh.PrimitiveMesh:
		return append([]uint32(nil), m.Indices...)
	case mesh.PrimitivePolyline:
		var out []uint32
		for _, pl := range m.Polylines {
			for i := 1; i < len(pl.Indices); i++ {
				out = append(out, pl.Indices[i-1], pl.Indices[i])
			}
		}
		return out
	case mesh.PrimitivePoint:
		var out []uint32
		for _, pl := range m.Polylines {
			out = append(out, pl.Indices...)
		}
		return out
	default:
		return nil
	}
}

// packedBytes returns the vertex and index buffer contents for m.
func packedBytes(m *mesh.Mesh) (vertexData, indexData []byte, indexCount int) {
	indices := PackIndices(m)
	return common.SliceToBytes(PackVertices(m)), common.SliceToBytes(indices), len(indices)
}
