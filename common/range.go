package common

import "math"

// Point3d is a point or vector in double precision world coordinates.
type Point3d [3]float64

// Sub returns p - o.
func (p Point3d) Sub(o Point3d) Point3d {
	return Point3d{p[0] - o[0], p[1] - o[1], p[2] - o[2]}
}

// Length returns the euclidean length of p treated as a vector.
func (p Point3d) Length() float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

// Distance returns the distance between p and o.
func (p Point3d) Distance(o Point3d) float64 {
	return p.Sub(o).Length()
}

// Range3d is an axis-aligned bounding box. A null range has Low > High on every axis
// and contains nothing; extending it with a point makes it non-null.
type Range3d struct {
	Low  Point3d
	High Point3d
}

// NullRange returns an empty range suitable for accumulating points with Extend.
//
// Returns:
//   - Range3d: a range for which IsNull reports true
func NullRange() Range3d {
	return Range3d{
		Low:  Point3d{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		High: Point3d{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
}

// NewRange creates a range from two arbitrary corners, ordering each axis.
//
// Parameters:
//   - a, b: opposite corners of the box
//
// Returns:
//   - Range3d: the normalized range
func NewRange(a, b Point3d) Range3d {
	r := NullRange()
	r.Extend(a)
	r.Extend(b)
	return r
}

// IsNull reports whether the range contains no points.
func (r Range3d) IsNull() bool {
	return r.Low[0] > r.High[0] || r.Low[1] > r.High[1] || r.Low[2] > r.High[2]
}

// Extend grows the range to include p.
func (r *Range3d) Extend(p Point3d) {
	for i := 0; i < 3; i++ {
		r.Low[i] = math.Min(r.Low[i], p[i])
		r.High[i] = math.Max(r.High[i], p[i])
	}
}

// Center returns the midpoint of the range.
func (r Range3d) Center() Point3d {
	return Point3d{
		(r.Low[0] + r.High[0]) * 0.5,
		(r.Low[1] + r.High[1]) * 0.5,
		(r.Low[2] + r.High[2]) * 0.5,
	}
}

// Diagonal returns the vector from Low to High.
func (r Range3d) Diagonal() Point3d {
	if r.IsNull() {
		return Point3d{}
	}
	return r.High.Sub(r.Low)
}

// Radius returns half the length of the diagonal.
func (r Range3d) Radius() float64 {
	return r.Diagonal().Length() * 0.5
}

// ContainsPoint reports whether p lies inside or on the boundary of the range.
func (r Range3d) ContainsPoint(p Point3d) bool {
	for i := 0; i < 3; i++ {
		if p[i] < r.Low[i] || p[i] > r.High[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether two ranges overlap (touching counts).
func (r Range3d) Intersects(o Range3d) bool {
	if r.IsNull() || o.IsNull() {
		return false
	}
	for i := 0; i < 3; i++ {
		if r.Low[i] > o.High[i] || o.Low[i] > r.High[i] {
			return false
		}
	}
	return true
}

// Octant returns one of the eight sub-boxes produced by splitting the range at its center.
// Bit 0 of index selects the upper half in x, bit 1 in y, bit 2 in z.
//
// Parameters:
//   - index: octant index in [0, 8)
//
// Returns:
//   - Range3d: the sub-range
func (r Range3d) Octant(index int) Range3d {
	c := r.Center()
	var o Range3d
	for axis := 0; axis < 3; axis++ {
		if index&(1<<axis) != 0 {
			o.Low[axis], o.High[axis] = c[axis], r.High[axis]
		} else {
			o.Low[axis], o.High[axis] = r.Low[axis], c[axis]
		}
	}
	return o
}
