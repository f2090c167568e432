package mesh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizationRoundTrip(t *testing.T) {
	r := common.NewRange(common.Point3d{-10, 2, 100}, common.Point3d{35.5, 2.25, 4000})
	params := QParamsFromRange(r)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		var p common.Point3d
		for axis := 0; axis < 3; axis++ {
			p[axis] = r.Low[axis] + rng.Float64()*(r.High[axis]-r.Low[axis])
		}
		q := params.Quantize(p)
		back := params.Unquantize(q[0], q[1], q[2])
		for axis := 0; axis < 3; axis++ {
			step := 1 / params.Scale[axis]
			assert.LessOrEqual(t, math.Abs(back[axis]-p[axis]), step, "axis %d of point %v", axis, p)
		}
	}
}

func TestQuantizationEndpointsAndClamp(t *testing.T) {
	r := common.NewRange(common.Point3d{0, 0, 0}, common.Point3d{1, 2, 4})
	params := QParamsFromRange(r)

	assert.Equal(t, QPoint3d{0, 0, 0}, params.Quantize(r.Low))
	assert.Equal(t, QPoint3d{0xffff, 0xffff, 0xffff}, params.Quantize(r.High))
	assert.Equal(t, QPoint3d{0, 0xffff, 0}, params.Quantize(common.Point3d{-5, 10, -1}))

	back := params.Range()
	assert.InDelta(t, 4.0, back.High[2], 1e-9)
}

func TestQuantizationZeroExtent(t *testing.T) {
	r := common.NewRange(common.Point3d{1, 1, 5}, common.Point3d{3, 1, 5})
	params := QParamsFromRange(r)
	assert.Zero(t, params.Scale[1])

	p := params.Unquantize(0x8000, 0x1234, 0xffff)
	assert.Equal(t, 1.0, p[1])
	assert.Equal(t, 5.0, p[2])
}

func TestQPoint3dListRange(t *testing.T) {
	var l QPoint3dList
	l.Reset(QParamsFromRange(common.NewRange(common.Point3d{0, 0, 0}, common.Point3d{10, 10, 10})))
	l.Push(QPoint3d{0, 0, 0})
	l.Push(QPoint3d{0xffff, 0x8000, 0})

	require.Equal(t, 2, l.Len())
	rng := l.Range()
	assert.InDelta(t, 10.0, rng.High[0], 1e-9)
	assert.InDelta(t, 5.0, rng.High[1], 1e-3)
	assert.Equal(t, 0.0, rng.High[2])
}

func TestOctEncodedNormal(t *testing.T) {
	tests := []struct {
		name string
		in   [3]float32
	}{
		{"up", [3]float32{0, 0, 1}},
		{"down", [3]float32{0, 0, -1}},
		{"x", [3]float32{1, 0, 0}},
		{"negative y", [3]float32{0, -1, 0}},
		{"diagonal below", [3]float32{0.5, -0.5, -0.7071}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EncodeNormal(tt.in).Decode()
			length := math.Sqrt(float64(tt.in[0]*tt.in[0] + tt.in[1]*tt.in[1] + tt.in[2]*tt.in[2]))
			for i := 0; i < 3; i++ {
				assert.InDelta(t, float64(tt.in[i])/length, float64(out[i]), 0.03)
			}
		})
	}
}

func TestColorMap(t *testing.T) {
	m := NewColorMap()
	a, ok := m.Insert(0xff0000)
	require.True(t, ok)
	b, _ := m.Insert(0x00ff00)
	again, _ := m.Insert(0xff0000)

	assert.Equal(t, uint16(0), a)
	assert.Equal(t, uint16(1), b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.IsUniform())
	assert.False(t, m.HasTransparency())

	m.Insert(NewColorDef(1, 2, 3, 128))
	assert.True(t, m.HasTransparency())
}

func TestColorDefComponents(t *testing.T) {
	c := NewColorDef(0x11, 0x22, 0x33, 0x44)
	assert.Equal(t, ColorDef(0x44332211), c)
	r, g, b, tr := c.Components()
	assert.Equal(t, []uint8{0x11, 0x22, 0x33, 0x44}, []uint8{r, g, b, tr})
}

func TestFeatures(t *testing.T) {
	table := NewFeatureTable(2)
	fs := NewFeatures(table)

	require.True(t, fs.Add(Feature{ElementID: "0x1"}, 3))
	assert.True(t, fs.IsUniform())
	assert.Equal(t, uint32(0), fs.Uniform())

	require.True(t, fs.Add(Feature{ElementID: "0x2"}, 2))
	assert.False(t, fs.IsUniform())
	assert.Equal(t, []uint32{0, 0, 0, 1, 1}, fs.Indices())

	assert.False(t, fs.Add(Feature{ElementID: "0x3"}, 1), "table is capped at two features")

	fs.SetIndices([]uint32{1, 1})
	assert.True(t, fs.IsUniform())
	assert.Equal(t, uint32(1), fs.Uniform())
}

func TestNewMeshOptions(t *testing.T) {
	m := NewMesh(UniformGrey(), PrimitiveMesh, WithFeatureTable(NewFeatureTable(1)), WithIsPlanar(true))
	require.NotNil(t, m.Features)
	assert.True(t, m.IsPlanar)
	assert.False(t, m.Is2d)

	m.AddTriangle(0, 1, 2)
	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, uint16(0), m.ColorIndex(5))
	assert.Equal(t, "Polyline", PrimitivePolyline.String())
}
