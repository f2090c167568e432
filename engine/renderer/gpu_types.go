package renderer

import "unsafe"

// GPUVertex is the interleaved vertex layout uploaded for tile meshes.
// Positions stay quantized; the vertex shader applies the mesh's QParams3d.
//
// Memory layout (24 bytes, matches WGSL struct alignment):
//
//	offset  0: position      vec3<u16>  (6 bytes, read as 3x u16)
//	offset  6: colorIndex    u16        (2 bytes)
//	offset  8: normal        u16        (2 bytes, oct-encoded)
//	offset 10: _pad          u16        (2 bytes)
//	offset 12: featureIndex  u32        (4 bytes)
//	offset 16: uv            vec2<f32>  (8 bytes)
type GPUVertex struct {
	Position     [3]uint16
	ColorIndex   uint16
	Normal       uint16
	_            uint16
	FeatureIndex uint32
	UV           [2]float32
}

// VertexStride is the byte size of one GPUVertex.
const VertexStride = int(unsafe.Sizeof(GPUVertex{}))
