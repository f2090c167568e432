package mesh

import (
	"github.com/chewxy/math32"
)

// OctEncodedNormal is a unit vector packed into 16 bits by projecting it onto an octahedron.
// The low byte holds the x coordinate and the high byte the y coordinate of the projection.
// Reference: http://jcgt.org/published/0003/02/01/
type OctEncodedNormal uint16

func signNotZero(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func clampUint8(v float32) uint16 {
	v = math32.Max(-1, math32.Min(1, v))
	return uint16(math32.Min(255, math32.Floor(0.5+(v*0.5+0.5)*255)))
}

// EncodeNormal oct-encodes a (not necessarily unit) direction vector.
// A zero vector encodes as the +Z direction.
//
// Parameters:
//   - v: the direction to encode
//
// Returns:
//   - OctEncodedNormal: the packed normal
func EncodeNormal(v [3]float32) OctEncodedNormal {
	denom := math32.Abs(v[0]) + math32.Abs(v[1]) + math32.Abs(v[2])
	if denom == 0 {
		v, denom = [3]float32{0, 0, 1}, 1
	}
	rx, ry := v[0]/denom, v[1]/denom
	if v[2] < 0 {
		x := rx
		rx = (1 - math32.Abs(ry)) * signNotZero(x)
		ry = (1 - math32.Abs(x)) * signNotZero(ry)
	}
	return OctEncodedNormal(clampUint8(ry)<<8 | clampUint8(rx))
}

// Decode expands the packed normal to a unit vector.
func (n OctEncodedNormal) Decode() [3]float32 {
	ex := float32(uint8(n))/255*2 - 1
	ey := float32(uint8(n>>8))/255*2 - 1
	v := [3]float32{ex, ey, 1 - math32.Abs(ex) - math32.Abs(ey)}
	if v[2] < 0 {
		x := v[0]
		v[0] = (1 - math32.Abs(v[1])) * signNotZero(x)
		v[1] = (1 - math32.Abs(x)) * signNotZero(v[1])
	}
	length := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length > 0 {
		v[0] /= length
		v[1] /= length
		v[2] /= length
	}
	return v
}
