package tileio

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio/tiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var redMaterial = map[string]any{"red": map[string]any{"fillColor": 0x0000ff}}

func decodeScene(t *testing.T, scene tiletest.Scene, options ...ReaderBuilderOption) *Content {
	t.Helper()
	if scene.Materials == nil {
		scene.Materials = redMaterial
	}
	content, err := Decode(scene.Gltf(), options...)
	require.NoError(t, err)
	return content
}

func TestDecodeBox(t *testing.T) {
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{tiletest.Box("red")}})

	require.Len(t, content.Meshes, 1)
	assert.Zero(t, content.Failed)
	assert.Equal(t, ContainerGltf, content.Header.Kind)

	m := content.Meshes[0]
	assert.Equal(t, mesh.PrimitiveMesh, m.Type)
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 12, m.TriangleCount())
	assert.Equal(t, mesh.ColorDef(0x0000ff), m.DisplayParams.FillColor)
	assert.True(t, m.ColorMap.IsUniform())
	assert.Equal(t, mesh.ColorDef(0x0000ff), m.ColorMap.At(0))

	r := m.Range()
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, 0, r.Low[axis], 1e-9)
		assert.InDelta(t, 1, r.High[axis], 1e-9)
	}
}

func TestDecodeBadIndexCountFailsOnlyThatPrimitive(t *testing.T) {
	bad := tiletest.Box("red")
	bad.Indices = bad.Indices[:10]

	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{tiletest.Box("red"), bad}})
	assert.Len(t, content.Meshes, 1)
	assert.Equal(t, 1, content.Failed)
}

func TestDecodePrimitiveFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *tiletest.Primitive)
	}{
		{"no material", func(p *tiletest.Primitive) { p.Material = "" }},
		{"unknown material", func(p *tiletest.Primitive) { p.Material = "blue" }},
		{"no positions", func(p *tiletest.Primitive) { p.Positions = nil }},
		{"index past last vertex", func(p *tiletest.Primitive) { p.Indices[4] = 8 }},
		{"declared indices beyond data", func(p *tiletest.Primitive) { p.IndexCount = 39 }},
		{"float indices", func(p *tiletest.Primitive) { p.IndexType = tiletest.Float }},
		{"colour table without colour indices", func(p *tiletest.Primitive) { p.ColorTable = []uint32{1, 2} }},
		{"colour index past table", func(p *tiletest.Primitive) {
			p.ColorTable = []uint32{1, 2}
			p.ColorIndices = []uint16{0, 1, 0, 1, 0, 1, 0, 2}
		}},
		{"unknown primitive type", func(p *tiletest.Primitive) { p.Type = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tiletest.Box("red")
			tt.mutate(&p)
			content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}})
			assert.Empty(t, content.Meshes)
			assert.Equal(t, 1, content.Failed)
		})
	}
}

func TestDecodeNarrowIndicesWiden(t *testing.T) {
	p := tiletest.Box("red")
	p.IndexType = tiletest.UnsignedByte
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}})

	require.Len(t, content.Meshes, 1)
	assert.Equal(t, tiletest.Box("red").Indices, content.Meshes[0].Indices)
}

func TestDecodeColorIndicesAndNormals(t *testing.T) {
	p := tiletest.Box("red")
	p.ColorTable = []uint32{0x0000ff, 0x00ff00}
	p.ColorIndices = []uint16{0, 1, 0, 1, 0, 1, 0, 1}
	up := mesh.EncodeNormal([3]float32{0, 0, 1})
	p.Normals = []uint16{uint16(up), uint16(up), uint16(up), uint16(up), uint16(up), uint16(up), uint16(up), uint16(up)}

	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}})
	require.Len(t, content.Meshes, 1)
	m := content.Meshes[0]

	assert.Equal(t, 2, m.ColorMap.Len())
	assert.Equal(t, uint16(1), m.ColorIndex(3))
	require.Len(t, m.Normals, 8)
	assert.Equal(t, up, m.Normals[5])
}

func TestDecodeUVParams(t *testing.T) {
	p := tiletest.Box("textured")
	p.UVs = make([][2]float32, 8)
	p.UVs[2] = [2]float32{0.25, 0.75}
	scene := tiletest.Scene{
		Materials:  map[string]any{"textured": map[string]any{"ignoreTexture": false}},
		Primitives: []tiletest.Primitive{p},
	}

	content := decodeScene(t, scene)
	require.Len(t, content.Meshes, 1)
	require.Len(t, content.Meshes[0].UVParams, 8)
	assert.Equal(t, [2]float32{0.25, 0.75}, content.Meshes[0].UVParams[2])
}

func linePrimitive(typ int, indexType uint32, lines []tiletest.Polyline) tiletest.Primitive {
	p := tiletest.Box("red")
	p.Indices = nil
	p.Type = typ
	p.IndexType = indexType
	p.Polylines = lines
	return p
}

func TestDecodePolylines(t *testing.T) {
	lines := []tiletest.Polyline{
		{StartDistance: 0, Indices: []uint32{0, 1, 3}},
		{StartDistance: 2.5, Indices: []uint32{4}},
		{StartDistance: 3, Indices: []uint32{5, 7}},
	}

	for _, indexType := range []uint32{tiletest.UnsignedShort, tiletest.UInt32} {
		content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{
			linePrimitive(int(mesh.PrimitivePolyline), indexType, lines),
		}})
		require.Len(t, content.Meshes, 1)
		polylines := content.Meshes[0].Polylines
		require.Len(t, polylines, 2, "single-index record is consumed but dropped")
		assert.Equal(t, []uint32{0, 1, 3}, polylines[0].Indices)
		assert.Equal(t, float32(3), polylines[1].StartDistance)
		assert.Equal(t, []uint32{5, 7}, polylines[1].Indices)
	}
}

func TestDecodePointStrings(t *testing.T) {
	lines := []tiletest.Polyline{
		{Indices: []uint32{0}},
		{Indices: nil},
		{Indices: []uint32{1, 2}},
	}
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{
		linePrimitive(int(mesh.PrimitivePoint), tiletest.UnsignedShort, lines),
	}})
	require.Len(t, content.Meshes, 1)
	assert.Equal(t, mesh.PrimitivePoint, content.Meshes[0].Type)
	assert.Len(t, content.Meshes[0].Polylines, 2)
}

func TestDecodePolylineTruncated(t *testing.T) {
	p := linePrimitive(int(mesh.PrimitivePolyline), tiletest.UnsignedShort, []tiletest.Polyline{
		{Indices: []uint32{0, 1}},
	})
	p.IndexCount = 2
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}})
	assert.Empty(t, content.Meshes)
	assert.Equal(t, 1, content.Failed)
}

func TestDecodeBatchIDs(t *testing.T) {
	table := mesh.NewFeatureTable(4)
	table.Insert(mesh.Feature{ElementID: "0x10"})
	table.Insert(mesh.Feature{ElementID: "0x11"})

	p := tiletest.Box("red")
	p.BatchIDs = []uint32{0, 0, 0, 0, 1, 1, 1, 1}
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}}, WithFeatureTable(table))
	require.Len(t, content.Meshes, 1)

	fs := content.Meshes[0].Features
	require.NotNil(t, fs)
	assert.False(t, fs.IsUniform())
	assert.Equal(t, p.BatchIDs, fs.Indices())

	p.BatchIDs[0] = 9
	content = decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{p}}, WithFeatureTable(table))
	assert.Equal(t, 1, content.Failed)
}

func TestDecodeB3dm(t *testing.T) {
	p := tiletest.Box("anything")
	p.ColorTable = []uint32{1, 2, 3}
	gltf := tiletest.Scene{
		Materials:  map[string]any{"anything": map[string]any{"fillColor": 0x00ff00}},
		Primitives: []tiletest.Primitive{p},
	}.Gltf()
	tile := tiletest.B3dm(gltf, []byte(`{"BATCH_LENGTH":1}  `), nil, []byte(`{}  `), []byte{1, 2, 3, 4})

	content, err := Decode(tile)
	require.NoError(t, err)
	assert.Equal(t, ContainerB3dm, content.Header.Kind)
	require.Len(t, content.Meshes, 1)

	m := content.Meshes[0]
	assert.Equal(t, mesh.UniformGrey(), m.DisplayParams)
	assert.True(t, m.ColorMap.IsUniform())
	assert.Equal(t, mesh.ColorDef(0x777777), m.ColorMap.At(0))
	require.NotNil(t, m.Features)
	assert.True(t, m.Features.IsUniform())
	assert.Equal(t, 1, content.FeatureTable.Len())
	assert.Empty(t, m.Normals)
}

func TestDecodeWithMaterialResolver(t *testing.T) {
	custom := &mesh.DisplayParams{Type: mesh.DisplayParamsLinear, IgnoreLighting: true, IgnoreTexture: true}
	resolver := MaterialResolverFunc(func(string, json.RawMessage) (*mesh.DisplayParams, error) {
		return custom, nil
	})
	content := decodeScene(t, tiletest.Scene{Primitives: []tiletest.Primitive{tiletest.Box("red")}},
		WithMaterialResolver(resolver))
	require.Len(t, content.Meshes, 1)
	assert.Same(t, custom, content.Meshes[0].DisplayParams)
}

func TestDecodeWholeTileErrors(t *testing.T) {
	_, err := Decode([]byte("pnts...."))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	tile := tiletest.GltfFromParts([]byte(`{"meshes":{}}`), nil)
	tile = tile[:len(tile)-4]
	_, err = Decode(tile)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode(tiletest.GltfFromParts([]byte(`{"meshes":{}}`), nil))
	assert.ErrorIs(t, err, ErrMalformedScene)
}

// rewriteScene re-encodes tile with the scene JSON passed through edit. edit receives the
// first primitive's attribute and indices references so it can find accessors by field.
func rewriteScene(t *testing.T, tile []byte, edit func(doc map[string]any, fields map[string]string)) []byte {
	t.Helper()
	sceneLen := binary.LittleEndian.Uint32(tile[12:])
	var doc map[string]any
	require.NoError(t, sceneJSON.Unmarshal(tile[20:20+sceneLen], &doc))

	prim := doc["meshes"].(map[string]any)["mesh00"].(map[string]any)["primitives"].([]any)[0].(map[string]any)
	fields := map[string]string{}
	for k, v := range prim["attributes"].(map[string]any) {
		fields[k] = v.(string)
	}
	if idx, ok := prim["indices"].(string); ok {
		fields["indices"] = idx
	}
	edit(doc, fields)

	scene, err := sceneJSON.Marshal(doc)
	require.NoError(t, err)
	return tiletest.GltfFromParts(scene, tile[20+sceneLen:])
}

func accessor(doc map[string]any, name string) map[string]any {
	return doc["accessors"].(map[string]any)[name].(map[string]any)
}

func TestDecodeOversizedDeclarationsFailWithoutPanic(t *testing.T) {
	textured := tiletest.Box("red")
	textured.UVs = make([][2]float32, 8)
	up := uint16(mesh.EncodeNormal([3]float32{0, 0, 1}))
	textured.Normals = []uint16{up, up, up, up, up, up, up, up}

	tests := []struct {
		name   string
		field  string
		count  int
		failed int
	}{
		{"position count", "POSITION", 3074457345618258603, 1},
		{"index count", "indices", math.MaxInt - 1, 1},
		{"normal count", "NORMAL", math.MaxInt/2 + 1, 1},
		{"uv count", "TEXCOORD_0", math.MaxInt/2 + 1, 0},
	}
	materials := map[string]any{"red": map[string]any{"ignoreTexture": false}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := rewriteScene(t, tiletest.Scene{Materials: materials, Primitives: []tiletest.Primitive{textured}}.Gltf(),
				func(doc map[string]any, fields map[string]string) {
					accessor(doc, fields[tt.field])["count"] = tt.count
				})

			var content *Content
			var err error
			require.NotPanics(t, func() { content, err = Decode(tile) })
			require.NoError(t, err)
			assert.Equal(t, tt.failed, content.Failed)
		})
	}
}

func TestDecodeOversizedBufferViewIsClipped(t *testing.T) {
	tile := rewriteScene(t, tiletest.Scene{Materials: redMaterial, Primitives: []tiletest.Primitive{tiletest.Box("red")}}.Gltf(),
		func(doc map[string]any, fields map[string]string) {
			bv := accessor(doc, fields["POSITION"])["bufferView"].(string)
			doc["bufferViews"].(map[string]any)[bv].(map[string]any)["byteLength"] = math.MaxInt
		})

	var content *Content
	var err error
	require.NotPanics(t, func() { content, err = Decode(tile) })
	require.NoError(t, err)
	require.Len(t, content.Meshes, 1)
	assert.Equal(t, 8, content.Meshes[0].VertexCount())
}

func TestDecodeOversizedPolylineCount(t *testing.T) {
	p := linePrimitive(1, tiletest.UInt32, []tiletest.Polyline{{Indices: []uint32{0, 1}}})
	tile := rewriteScene(t, tiletest.Scene{Materials: redMaterial, Primitives: []tiletest.Primitive{p}}.Gltf(),
		func(doc map[string]any, fields map[string]string) {
			accessor(doc, fields["indices"])["count"] = math.MaxInt
		})

	var content *Content
	require.NotPanics(t, func() { content, _ = Decode(tile) })
	assert.Equal(t, 1, content.Failed)
}

func TestDecodeUnreadableColorIndices(t *testing.T) {
	floatIndices := func(doc map[string]any, fields map[string]string) {
		accessor(doc, fields["_COLORINDEX"])["componentType"] = tiletest.Float
	}

	uniform := tiletest.Box("red")
	uniform.ColorIndices = make([]uint16, 8)
	content, err := Decode(rewriteScene(t, tiletest.Scene{Materials: redMaterial, Primitives: []tiletest.Primitive{uniform}}.Gltf(), floatIndices))
	require.NoError(t, err)
	require.Len(t, content.Meshes, 1, "a uniform colour map needs no indices")
	assert.Nil(t, content.Meshes[0].Colors)

	mixed := tiletest.Box("red")
	mixed.ColorTable = []uint32{0x0000ff, 0x00ff00}
	mixed.ColorIndices = make([]uint16, 8)
	content, err = Decode(rewriteScene(t, tiletest.Scene{Materials: redMaterial, Primitives: []tiletest.Primitive{mixed}}.Gltf(), floatIndices))
	require.NoError(t, err)
	assert.Empty(t, content.Meshes)
	assert.Equal(t, 1, content.Failed)
}
