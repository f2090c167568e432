package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func box(x, y, z float64) Range3d {
	return NewRange(Point3d{x - 0.5, y - 0.5, z - 0.5}, Point3d{x + 0.5, y + 0.5, z + 0.5})
}

func TestFrustumFromMatrix(t *testing.T) {
	viewProj := ViewProjection(Point3d{0, 0, 10}, Point3d{}, Point3d{0, 1, 0}, math.Pi/2, 1, 0.1, 100)
	f := ExtractFrustumFromMatrix(viewProj)

	assert.True(t, f.IntersectsRange(box(0, 0, 0)))
	assert.True(t, f.IntersectsRange(box(5, 0, 0)), "inside the 90 degree cone at distance 10")
	assert.False(t, f.IntersectsRange(box(0, 0, 50)), "behind the eye")
	assert.False(t, f.IntersectsRange(box(100, 0, 0)))
	assert.False(t, f.IntersectsRange(box(0, 0, -200)), "beyond the far plane")
	assert.False(t, f.IntersectsRange(NullRange()))
}

func TestFrustumFromRange(t *testing.T) {
	f := FrustumFromRange(NewRange(Point3d{0, 0, 0}, Point3d{4, 4, 4}))
	assert.True(t, f.IntersectsRange(box(2, 2, 2)))
	assert.True(t, f.IntersectsRange(box(4.4, 2, 2)), "partially inside")
	assert.False(t, f.IntersectsRange(box(6, 2, 2)))
	assert.False(t, f.IntersectsRange(box(2, -3, 2)))

	var everything Frustum
	assert.True(t, everything.IntersectsRange(box(1e6, -1e6, 0)), "the zero frustum sees everything")
}
