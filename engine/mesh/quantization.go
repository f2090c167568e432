package mesh

import (
	"math"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

// RangeScale16 is the largest value representable on the 16-bit quantization lattice.
const RangeScale16 = 0xffff

// computeScale returns the multiplier mapping an extent onto [0, RangeScale16].
// A zero extent yields a zero scale; every coordinate on that axis decodes to the origin.
func computeScale(extent float64) float64 {
	if extent == 0 {
		return 0
	}
	return RangeScale16 / extent
}

// QParams3d describes how 16-bit lattice coordinates map onto world coordinates.
// Each axis maps linearly from [0, 0xffff] onto [origin, origin+extent].
type QParams3d struct {
	Origin common.Point3d
	Scale  common.Point3d
}

// QParamsFromRange derives quantization parameters that cover the given range.
//
// Parameters:
//   - r: the decode range; r.Low maps to lattice 0 and r.High to 0xffff
//
// Returns:
//   - QParams3d: the quantization parameters
func QParamsFromRange(r common.Range3d) QParams3d {
	d := r.Diagonal()
	return QParams3d{
		Origin: r.Low,
		Scale:  common.Point3d{computeScale(d[0]), computeScale(d[1]), computeScale(d[2])},
	}
}

// Range returns the world range covered by the lattice.
func (q QParams3d) Range() common.Range3d {
	return common.NewRange(q.Unquantize(0, 0, 0), q.Unquantize(RangeScale16, RangeScale16, RangeScale16))
}

// Quantize maps a world point onto the lattice, clamping to [0, 0xffff].
//
// Parameters:
//   - p: the world point
//
// Returns:
//   - QPoint3d: the nearest lattice point
func (q QParams3d) Quantize(p common.Point3d) QPoint3d {
	var out QPoint3d
	for i := 0; i < 3; i++ {
		v := math.Round((p[i] - q.Origin[i]) * q.Scale[i])
		out[i] = uint16(math.Max(0, math.Min(RangeScale16, v)))
	}
	return out
}

// Unquantize maps lattice coordinates back to world coordinates.
func (q QParams3d) Unquantize(x, y, z uint16) common.Point3d {
	return common.Point3d{
		unquantize(x, q.Origin[0], q.Scale[0]),
		unquantize(y, q.Origin[1], q.Scale[1]),
		unquantize(z, q.Origin[2], q.Scale[2]),
	}
}

func unquantize(v uint16, origin, scale float64) float64 {
	if scale == 0 {
		return origin
	}
	return origin + float64(v)/scale
}

// QPoint3d is a point on the 16-bit quantization lattice.
type QPoint3d [3]uint16

// QPoint3dList is a list of lattice points sharing one set of quantization parameters.
type QPoint3dList struct {
	Params QParams3d
	Points []QPoint3d
}

// Reset discards all points and adopts new parameters.
func (l *QPoint3dList) Reset(params QParams3d) {
	l.Params = params
	l.Points = l.Points[:0]
}

// Push appends a lattice point.
func (l *QPoint3dList) Push(p QPoint3d) {
	l.Points = append(l.Points, p)
}

// Len returns the number of points.
func (l *QPoint3dList) Len() int {
	return len(l.Points)
}

// Unquantized returns the world coordinates of point i.
func (l *QPoint3dList) Unquantized(i int) common.Point3d {
	p := l.Points[i]
	return l.Params.Unquantize(p[0], p[1], p[2])
}

// Range returns the world range spanned by the points actually present.
func (l *QPoint3dList) Range() common.Range3d {
	r := common.NullRange()
	for i := range l.Points {
		r.Extend(l.Unquantized(i))
	}
	return r
}
