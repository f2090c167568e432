package tile

// TreeBuilderOption is a functional option for configuring a Tree.
type TreeBuilderOption func(*Tree)

// WithContentSource sets where the tree's tile content is fetched from. A tree without a
// source marks every requested tile NotFound.
func WithContentSource(source ContentSource) TreeBuilderOption {
	return func(t *Tree) {
		t.source = source
	}
}

// WithMaxDepth sets the depth of the tree's leaves.
func WithMaxDepth(depth int) TreeBuilderOption {
	return func(t *Tree) {
		if depth >= 0 {
			t.maxDepth = depth
		}
	}
}

// WithRealityModel marks the tree as a reality model, which expires its tiles on the reality
// tile expiration time.
func WithRealityModel(reality bool) TreeBuilderOption {
	return func(t *Tree) {
		t.reality = reality
	}
}

// WithName sets the tree's display name.
func WithName(name string) TreeBuilderOption {
	return func(t *Tree) {
		t.name = name
	}
}
