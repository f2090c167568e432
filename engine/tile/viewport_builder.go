package tile

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
)

// ViewportBuilderOption is a functional option for configuring a Viewport.
type ViewportBuilderOption func(*Viewport)

// WithFrustum sets the volume the viewport can see.
func WithFrustum(f common.Frustum) ViewportBuilderOption {
	return func(v *Viewport) {
		v.frustum = f
	}
}

// WithEye sets the point distances are measured from when deciding whether to refine a tile.
func WithEye(eye common.Point3d) ViewportBuilderOption {
	return func(v *Viewport) {
		v.eye = eye
	}
}

// WithLODFactor sets how eagerly tiles are refined: a tile is replaced by its children when the
// eye is closer than its radius times factor.
func WithLODFactor(factor float64) ViewportBuilderOption {
	return func(v *Viewport) {
		if factor > 0 {
			v.lodFactor = factor
		}
	}
}

// WithViewportName sets the viewport's name.
func WithViewportName(name string) ViewportBuilderOption {
	return func(v *Viewport) {
		v.name = name
	}
}

// WithViewedTrees sets the trees the viewport displays.
func WithViewedTrees(trees ...*Tree) ViewportBuilderOption {
	return func(v *Viewport) {
		v.trees = append([]*Tree(nil), trees...)
	}
}
