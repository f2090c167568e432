// Package tiletest builds binary tile content for tests.
package tiletest

import (
	"encoding/binary"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

const (
	gltfMagic = 0x46546c67
	b3dmMagic = 0x6d643362

	UnsignedByte  = 0x1401
	UnsignedShort = 0x1403
	UInt32        = 0x1405
	Float         = 0x1406
)

// Polyline is one polyline record.
type Polyline struct {
	StartDistance float32
	Indices       []uint32
}

// Primitive describes one primitive of a scene. Zero-valued fields are omitted from the output.
type Primitive struct {
	Material string
	// Type is the primitive type written to the scene: 0 mesh, 1 polyline, 2 point.
	Type int

	Positions [][3]uint16
	Min, Max  [3]float64

	Indices []uint32
	// IndexType is the component type used to store Indices or polyline indices; UInt32 if zero.
	IndexType uint32
	// IndexCount overrides the declared index (or polyline record) count when non-zero.
	IndexCount int

	Polylines []Polyline

	Normals      []uint16
	UVs          [][2]float32
	ColorTable   []uint32
	ColorIndices []uint16
	BatchIDs     []uint32
	IsPlanar     bool
}

// Scene is the content of one glTF payload. Every primitive is placed in its own mesh.
type Scene struct {
	Materials  map[string]any
	Primitives []Primitive
}

type builder struct {
	bin         []byte
	accessors   map[string]any
	bufferViews map[string]any
}

func (b *builder) add(data []byte, componentType uint32, count int, extra map[string]any) string {
	for len(b.bin)%4 != 0 {
		b.bin = append(b.bin, 0)
	}
	id := len(b.bufferViews)
	bv := fmt.Sprintf("bv%d", id)
	acc := fmt.Sprintf("acc%d", id)
	b.bufferViews[bv] = map[string]any{
		"buffer":     "binary_glTF",
		"byteOffset": len(b.bin),
		"byteLength": len(data),
	}
	a := map[string]any{
		"bufferView":    bv,
		"byteOffset":    0,
		"componentType": componentType,
		"count":         count,
	}
	for k, v := range extra {
		a[k] = v
	}
	b.accessors[acc] = a
	b.bin = append(b.bin, data...)
	return acc
}

func putIndices(values []uint32, componentType uint32) []byte {
	var out []byte
	for _, v := range values {
		switch componentType {
		case UnsignedByte:
			out = append(out, byte(v))
		case UnsignedShort:
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		default:
			out = binary.LittleEndian.AppendUint32(out, v)
		}
	}
	return out
}

func indexType(t uint32) uint32 {
	if t == 0 {
		return UInt32
	}
	return t
}

// Gltf encodes the scene as a binary glTF tile.
func (s Scene) Gltf() []byte {
	b := &builder{accessors: map[string]any{}, bufferViews: map[string]any{}}
	meshes := map[string]any{}

	for i, p := range s.Primitives {
		attrs := map[string]any{}
		prim := map[string]any{"attributes": attrs}
		if p.Material != "" {
			prim["material"] = p.Material
		}
		if p.Type != 0 {
			prim["type"] = p.Type
		}
		if p.IsPlanar {
			prim["isPlanar"] = true
		}
		if len(p.ColorTable) > 0 {
			prim["colorTable"] = p.ColorTable
		}

		if p.Positions != nil {
			var pos []byte
			for _, q := range p.Positions {
				for _, c := range q {
					pos = binary.LittleEndian.AppendUint16(pos, c)
				}
			}
			attrs["POSITION"] = b.add(pos, UnsignedShort, len(p.Positions), map[string]any{
				"type": "VEC3",
				"extensions": map[string]any{
					"WEB3D_quantized_attributes": map[string]any{
						"decodedMin": p.Min[:],
						"decodedMax": p.Max[:],
					},
				},
			})
		}

		it := indexType(p.IndexType)
		switch {
		case p.Polylines != nil:
			var rec []byte
			for _, pl := range p.Polylines {
				rec = binary.LittleEndian.AppendUint32(rec, math.Float32bits(pl.StartDistance))
				rec = binary.LittleEndian.AppendUint32(rec, uint32(len(pl.Indices)))
				rec = append(rec, putIndices(pl.Indices, it)...)
			}
			count := len(p.Polylines)
			if p.IndexCount != 0 {
				count = p.IndexCount
			}
			prim["indices"] = b.add(rec, it, count, nil)
		case p.Indices != nil:
			count := len(p.Indices)
			if p.IndexCount != 0 {
				count = p.IndexCount
			}
			prim["indices"] = b.add(putIndices(p.Indices, it), it, count, nil)
		}

		if p.Normals != nil {
			attrs["NORMAL"] = b.add(putIndices(u16s(p.Normals), UnsignedShort), UnsignedByte, len(p.Normals), nil)
		}
		if p.UVs != nil {
			var uv []byte
			for _, v := range p.UVs {
				uv = binary.LittleEndian.AppendUint32(uv, math.Float32bits(v[0]))
				uv = binary.LittleEndian.AppendUint32(uv, math.Float32bits(v[1]))
			}
			attrs["TEXCOORD_0"] = b.add(uv, Float, len(p.UVs), nil)
		}
		if p.ColorIndices != nil {
			attrs["_COLORINDEX"] = b.add(putIndices(u16s(p.ColorIndices), UnsignedShort), UnsignedShort, len(p.ColorIndices), nil)
		}
		if p.BatchIDs != nil {
			attrs["_BATCHID"] = b.add(putIndices(p.BatchIDs, UInt32), UInt32, len(p.BatchIDs), nil)
		}

		meshes[fmt.Sprintf("mesh%02d", i)] = map[string]any{"primitives": []any{prim}}
	}

	materials := s.Materials
	if materials == nil {
		materials = map[string]any{}
	}
	scene, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]any{
		"meshes":      meshes,
		"materials":   materials,
		"accessors":   b.accessors,
		"bufferViews": b.bufferViews,
	})
	if err != nil {
		panic(err)
	}
	return GltfFromParts(scene, b.bin)
}

func u16s(v []uint16) []uint32 {
	out := make([]uint32, len(v))
	for i, x := range v {
		out[i] = uint32(x)
	}
	return out
}

// GltfFromParts assembles a binary glTF tile from raw scene JSON and binary chunk.
func GltfFromParts(scene, bin []byte) []byte {
	for len(scene)%4 != 0 {
		scene = append(scene, ' ')
	}
	out := make([]byte, 0, 20+len(scene)+len(bin))
	out = binary.LittleEndian.AppendUint32(out, gltfMagic)
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = binary.LittleEndian.AppendUint32(out, uint32(20+len(scene)+len(bin)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(scene)))
	out = binary.LittleEndian.AppendUint32(out, 0)
	out = append(out, scene...)
	return append(out, bin...)
}

// B3dm wraps a glTF tile in a batched-model header followed by the four side tables.
func B3dm(gltf []byte, sideTables ...[]byte) []byte {
	var tables [4][]byte
	copy(tables[:], sideTables)

	total := 28 + len(gltf)
	for _, t := range tables {
		total += len(t)
	}
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, b3dmMagic)
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	for _, t := range tables {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(t)))
	}
	for _, t := range tables {
		out = append(out, t...)
	}
	return append(out, gltf...)
}

// Box returns a unit cube of eight corner vertices and twelve triangles.
func Box(material string) Primitive {
	var positions [][3]uint16
	for i := 0; i < 8; i++ {
		positions = append(positions, [3]uint16{
			uint16(i&1) * 0xffff,
			uint16(i>>1&1) * 0xffff,
			uint16(i>>2&1) * 0xffff,
		})
	}
	return Primitive{
		Material:  material,
		Positions: positions,
		Min:       [3]float64{0, 0, 0},
		Max:       [3]float64{1, 1, 1},
		Indices: []uint32{
			0, 1, 3, 0, 3, 2,
			4, 6, 7, 4, 7, 5,
			0, 4, 5, 0, 5, 1,
			2, 3, 7, 2, 7, 6,
			0, 2, 6, 0, 6, 4,
			1, 5, 7, 1, 7, 3,
		},
	}
}
