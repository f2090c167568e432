package mesh

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*Mesh)

// WithFeatureTable attaches per-vertex feature storage backed by table.
//
// Parameters:
//   - table: the feature table shared by all meshes of a tile; nil leaves the mesh featureless
//
// Returns:
//   - MeshBuilderOption: a function that applies the feature table to a mesh
func WithFeatureTable(table *FeatureTable) MeshBuilderOption {
	return func(m *Mesh) {
		if table != nil {
			m.Features = NewFeatures(table)
		}
	}
}

// WithIs2d marks the mesh as belonging to a 2d model.
func WithIs2d(is2d bool) MeshBuilderOption {
	return func(m *Mesh) {
		m.Is2d = is2d
	}
}

// WithIsPlanar marks the mesh as planar, allowing the renderer to skip depth offsetting.
func WithIsPlanar(planar bool) MeshBuilderOption {
	return func(m *Mesh) {
		m.IsPlanar = planar
	}
}
