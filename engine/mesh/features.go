package mesh

// GeometryClass categorizes the geometry a feature was produced from.
type GeometryClass uint8

const (
	GeometryClassPrimary GeometryClass = iota
	GeometryClassConstruction
	GeometryClassDimension
	GeometryClassPattern
)

// Feature identifies the element a piece of tile geometry belongs to.
type Feature struct {
	ElementID     string
	SubCategoryID string
	GeometryClass GeometryClass
}

// FeatureTable is an insertion-ordered set of features, capped at a maximum size.
type FeatureTable struct {
	maxFeatures int
	features    []Feature
	lookup      map[Feature]uint32
}

// NewFeatureTable creates a table holding at most maxFeatures entries.
func NewFeatureTable(maxFeatures int) *FeatureTable {
	return &FeatureTable{maxFeatures: maxFeatures, lookup: make(map[Feature]uint32)}
}

// Insert adds a feature if absent and returns its index.
//
// Parameters:
//   - f: the feature
//
// Returns:
//   - uint32: the feature's index
//   - bool: false if the table is full and f is not already present
func (t *FeatureTable) Insert(f Feature) (uint32, bool) {
	if idx, ok := t.lookup[f]; ok {
		return idx, true
	}
	if len(t.features) >= t.maxFeatures {
		return 0, false
	}
	idx := uint32(len(t.features))
	t.features = append(t.features, f)
	t.lookup[f] = idx
	return idx, true
}

// Len returns the number of features.
func (t *FeatureTable) Len() int { return len(t.features) }

// IsUniform reports whether the table holds exactly one feature.
func (t *FeatureTable) IsUniform() bool { return len(t.features) == 1 }

// At returns the feature at index i.
func (t *FeatureTable) At(i int) Feature { return t.features[i] }

// Features associates each vertex of a mesh with an entry in a FeatureTable.
// When every vertex shares one feature only that index is stored.
type Features struct {
	Table       *FeatureTable
	indices     []uint32
	uniform     uint32
	initialized bool
}

// NewFeatures creates per-vertex feature storage backed by table.
func NewFeatures(table *FeatureTable) *Features {
	return &Features{Table: table}
}

// Add inserts f into the table and assigns it to the next numVerts vertices.
//
// Parameters:
//   - f: the feature
//   - numVerts: number of vertices that belong to f
//
// Returns:
//   - bool: false if the table is full
func (fs *Features) Add(f Feature, numVerts int) bool {
	idx, ok := fs.Table.Insert(f)
	if !ok {
		return false
	}
	if !fs.initialized {
		fs.uniform = idx
		fs.initialized = true
	}
	fs.indices = fillIndices(fs.indices, idx, numVerts)
	return true
}

func fillIndices(dst []uint32, idx uint32, n int) []uint32 {
	for i := 0; i < n; i++ {
		dst = append(dst, idx)
	}
	return dst
}

// SetIndices replaces the per-vertex indices.
func (fs *Features) SetIndices(indices []uint32) {
	fs.initialized = true
	fs.indices = indices
	fs.uniform = 0
	if len(indices) > 0 {
		fs.uniform = indices[0]
	}
}

// IsUniform reports whether every vertex refers to the same feature.
func (fs *Features) IsUniform() bool {
	for _, idx := range fs.indices {
		if idx != fs.uniform {
			return false
		}
	}
	return fs.initialized
}

// Uniform returns the shared feature index; meaningful only when IsUniform is true.
func (fs *Features) Uniform() uint32 { return fs.uniform }

// Indices returns the per-vertex feature indices.
func (fs *Features) Indices() []uint32 { return fs.indices }
