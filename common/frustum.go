package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined View * Projection matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row.
	// Each plane is row3 +/- rowN.
	rows := [6]struct {
		row  int
		sign float32
	}{
		FrustumLeft:   {0, 1},
		FrustumRight:  {0, -1},
		FrustumBottom: {1, 1},
		FrustumTop:    {1, -1},
		FrustumNear:   {2, 1},
		FrustumFar:    {2, -1},
	}

	for i, r := range rows {
		p := &f.Planes[i]
		p.Normal[0] = viewProj[3] + r.sign*viewProj[r.row]
		p.Normal[1] = viewProj[7] + r.sign*viewProj[4+r.row]
		p.Normal[2] = viewProj[11] + r.sign*viewProj[8+r.row]
		p.Distance = viewProj[15] + r.sign*viewProj[12+r.row]
		f.normalizePlane(i)
	}

	return f
}

// FrustumFromRange builds an axis-aligned "frustum" enclosing exactly the given range.
// Useful for orthographic or region-of-interest selection where no projection exists.
//
// Parameters:
//   - r: the region that should be considered visible
//
// Returns:
//   - Frustum: six inward-facing planes bounding r
func FrustumFromRange(r Range3d) Frustum {
	var f Frustum
	f.Planes[FrustumLeft] = Plane{Normal: [3]float32{1, 0, 0}, Distance: float32(-r.Low[0])}
	f.Planes[FrustumRight] = Plane{Normal: [3]float32{-1, 0, 0}, Distance: float32(r.High[0])}
	f.Planes[FrustumBottom] = Plane{Normal: [3]float32{0, 1, 0}, Distance: float32(-r.Low[1])}
	f.Planes[FrustumTop] = Plane{Normal: [3]float32{0, -1, 0}, Distance: float32(r.High[1])}
	f.Planes[FrustumNear] = Plane{Normal: [3]float32{0, 0, 1}, Distance: float32(-r.Low[2])}
	f.Planes[FrustumFar] = Plane{Normal: [3]float32{0, 0, -1}, Distance: float32(r.High[2])}
	return f
}

// IntersectsRange reports whether any part of the range lies on the inner side of all six planes.
// For each plane the corner furthest along the plane normal is tested; if even that corner is
// outside, the whole box is outside. The test is conservative: a few boxes near frustum
// corners are reported visible when they are not.
//
// Parameters:
//   - r: the bounding range to test
//
// Returns:
//   - bool: false only when the range is certainly outside the frustum
func (f *Frustum) IntersectsRange(r Range3d) bool {
	if r.IsNull() {
		return false
	}
	for i := range f.Planes {
		p := &f.Planes[i]
		var dot float64
		for axis := 0; axis < 3; axis++ {
			n := float64(p.Normal[axis])
			if n >= 0 {
				dot += n * r.High[axis]
			} else {
				dot += n * r.Low[axis]
			}
		}
		if dot+float64(p.Distance) < 0 {
			return false
		}
	}
	return true
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := math32.Sqrt(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}
