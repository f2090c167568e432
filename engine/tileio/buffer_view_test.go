package tileio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBufferDataWidening(t *testing.T) {
	view := &BufferView{Data: []byte{0, 7, 200, 255}, Count: 4, Type: TypeUnsignedByte}

	for _, desired := range []DataType{TypeUnsignedByte, TypeUnsignedShort, TypeUInt32} {
		data, err := view.ToBufferData(desired)
		require.NoError(t, err, "as %s", desired)
		require.Equal(t, 4, data.Len())
		for i, b := range view.Data {
			assert.Equal(t, uint32(b), data.Uint(i))
		}
	}

	_, err := view.ToBufferData(TypeFloat)
	assert.ErrorIs(t, err, ErrNotConvertible)
}

func TestToBufferDataNarrowingRefused(t *testing.T) {
	data := binary.LittleEndian.AppendUint16(nil, 0x1234)
	view := &BufferView{Data: data, Count: 1, Type: TypeUnsignedShort}

	_, err := view.ToBufferData(TypeUnsignedByte)
	assert.ErrorIs(t, err, ErrNotConvertible)

	wide, err := view.ToBufferData(TypeUInt32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), wide.Uint(0))
}

func TestToBufferDataFloat(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.5))
	view := &BufferView{Data: data, Count: 1, Type: TypeFloat}

	_, err := view.ToBufferData(TypeUInt32)
	assert.ErrorIs(t, err, ErrNotConvertible)

	f, err := view.ToBufferData(TypeFloat)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f.Float(0))
}

func TestToBufferDataIgnoresTrailingPartialElement(t *testing.T) {
	view := &BufferView{Data: []byte{1, 0, 0, 0, 9, 9}, Count: 1, Type: TypeUInt32}
	data, err := view.ToBufferData(TypeUInt32)
	require.NoError(t, err)
	assert.Equal(t, 1, data.Len())
	assert.Equal(t, uint32(1), data.Uint(0))
}

func TestSceneBufferView(t *testing.T) {
	doc := &sceneDocument{
		Accessors: namedTable[sceneAccessor]{
			"a":       {BufferView: "bv", ByteOffset: 2, ComponentType: TypeUnsignedShort, Count: 2},
			"far":     {BufferView: "bv", ByteOffset: 64, ComponentType: TypeUnsignedShort, Count: 1},
			"dangler": {BufferView: "missing", ComponentType: TypeUnsignedShort, Count: 1},
			"odd":     {BufferView: "bv", ComponentType: DataType(0x1400), Count: 1},
		},
		BufferViews: namedTable[sceneBufferView]{
			"bv": {ByteOffset: 4, ByteLength: 8},
		},
	}
	bin := []byte{0, 0, 0, 0, 0, 0, 1, 0, 2, 0, 3, 0}
	fields := AccessorFields{"A": "a", "FAR": "far", "DANGLER": "dangler", "ODD": "odd", "MISSING": "nope"}

	view, err := doc.bufferView(bin, fields, "A")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, view.Data, "window clipped to the end of the binary chunk")
	assert.Equal(t, 2, view.Count)

	_, err = doc.bufferView(bin, fields, "FAR")
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = doc.bufferView(bin, fields, "DANGLER")
	assert.ErrorIs(t, err, ErrAccessorNotFound)
	_, err = doc.bufferView(bin, fields, "MISSING")
	assert.ErrorIs(t, err, ErrAccessorNotFound)
	_, err = doc.bufferView(bin, fields, "ABSENT")
	assert.ErrorIs(t, err, ErrAccessorNotFound)
	_, err = doc.bufferView(bin, fields, "ODD")
	assert.ErrorIs(t, err, ErrUnsupportedComponentType)
}

func TestParseSceneTableForms(t *testing.T) {
	doc, err := parseScene([]byte(`{
		"meshes": [{"primitives": [{"material": 0, "attributes": {"POSITION": 1}, "indices": 0}]}],
		"materials": [{}],
		"accessors": {"0": {"bufferView": 0, "componentType": 5125, "count": 3}},
		"bufferViews": [{"byteLength": 12}]
	}`))
	require.NoError(t, err)

	prim := doc.Meshes["0"].Primitives[0]
	assert.Equal(t, AccessorRef("0"), prim.Material)
	assert.Equal(t, AccessorFields{"POSITION": "1", "indices": "0"}, prim.fields())
	assert.Equal(t, TypeUInt32, doc.Accessors["0"].ComponentType)
	assert.Equal(t, 12, doc.BufferViews["0"].ByteLength)
}

func TestParseSceneMissingTables(t *testing.T) {
	_, err := parseScene([]byte(`{"meshes": {}, "materials": {}, "accessors": {}}`))
	assert.ErrorIs(t, err, ErrMalformedScene)

	_, err = parseScene([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedScene)
}
