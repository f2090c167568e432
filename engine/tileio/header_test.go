package tileio

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio/tiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gltfHeaderBytes(magic, version, length, sceneLen, sceneFormat uint32) []byte {
	var out []byte
	for _, v := range []uint32{magic, version, length, sceneLen, sceneFormat} {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

func TestReadGltfHeader(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{"version 1", gltfHeaderBytes(uint32(FormatGltf), 1, 20, 0, 0), true},
		{"version 2", gltfHeaderBytes(uint32(FormatGltf), 2, 20, 0, 0), true},
		{"unknown version", gltfHeaderBytes(uint32(FormatGltf), 3, 20, 0, 0), false},
		{"wrong scene format", gltfHeaderBytes(uint32(FormatGltf), 1, 20, 0, 1), false},
		{"wrong magic", gltfHeaderBytes(uint32(FormatPnts), 1, 20, 0, 0), false},
		{"truncated", gltfHeaderBytes(uint32(FormatGltf), 1, 20, 0, 0)[:19], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ReadGltfHeader(NewStreamBuffer(tt.data))
			assert.Equal(t, tt.valid, h.IsValid())
		})
	}
}

func TestReadContainerHeaderTruncated(t *testing.T) {
	tile := tiletest.B3dm(
		tiletest.Scene{}.Gltf(),
		[]byte(`{"BATCH_LENGTH":0}  `), nil, []byte("{}  "), nil,
	)
	full, err := ReadContainerHeader(NewStreamBuffer(tile))
	require.NoError(t, err)
	require.NotNil(t, full.Batched)

	headerEnd := 28 + 20 + int(full.Batched.FeatureTableJSONLength+full.Batched.BatchTableJSONLength)
	for n := 0; n < headerEnd; n++ {
		_, err := ReadContainerHeader(NewStreamBuffer(tile[:n]))
		assert.Error(t, err, "prefix of %d bytes", n)
	}
}

func TestReadContainerHeaderB3dm(t *testing.T) {
	featureJSON := []byte(`{"BATCH_LENGTH":1}  `)
	tile := tiletest.B3dm(tiletest.Scene{}.Gltf(), featureJSON)

	s := NewStreamBuffer(tile)
	h, err := ReadContainerHeader(s)
	require.NoError(t, err)
	assert.Equal(t, ContainerB3dm, h.Kind)
	assert.Equal(t, uint32(len(featureJSON)), h.Batched.FeatureTableJSONLength)
	assert.Equal(t, uint32(len(tile)), h.Batched.Length)
	assert.True(t, h.Gltf.IsValid())
	assert.Equal(t, 28+len(featureJSON)+20, s.CurPos())
}

func TestReadContainerHeaderSideTablePastEnd(t *testing.T) {
	tile := tiletest.B3dm(tiletest.Scene{}.Gltf())
	binary.LittleEndian.PutUint32(tile[16:], uint32(len(tile)))

	_, err := ReadContainerHeader(NewStreamBuffer(tile))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadContainerHeaderUnknownFormat(t *testing.T) {
	_, err := ReadContainerHeader(NewStreamBuffer(gltfHeaderBytes(uint32(FormatI3dm), 1, 20, 0, 0)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadContainerHeader(NewStreamBuffer(nil))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "b3dm", FormatB3dm.String())
	assert.Equal(t, "glTF", FormatGltf.String())
	assert.Equal(t, "Format(0x00000001)", Format(1).String())
}
