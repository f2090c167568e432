// Package tileio decodes binary tile content into meshes. Two containers are understood:
// binary glTF carrying quantized iModel geometry, and b3dm, which wraps the same glTF payload
// behind a batched-model header and side tables.
//
// Decoding never trusts the input. Truncated headers, malformed scene JSON, and accessors that
// point outside the binary chunk are reported as errors; a single malformed primitive is
// skipped without affecting the rest of the tile.
package tileio

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

// Content is a decoded tile.
type Content struct {
	Header       ContainerHeader
	Meshes       []*mesh.Mesh
	FeatureTable *mesh.FeatureTable
	// Failed counts primitives skipped because they could not be decoded.
	Failed int
}

// IsEmpty reports whether the tile produced no geometry.
func (c *Content) IsEmpty() bool { return len(c.Meshes) == 0 }

// Decode reads a complete tile.
//
// Parameters:
//   - data: the tile bytes, starting at the container magic
//   - options: functional options passed to NewReader
//
// Returns:
//   - *Content: the decoded meshes
//   - error: if the tile as a whole cannot be read; per-primitive failures are counted instead
func Decode(data []byte, options ...ReaderBuilderOption) (*Content, error) {
	r, err := NewReader(data, options...)
	if err != nil {
		return nil, err
	}
	result := r.Read()
	return &Content{
		Header:       r.Header(),
		Meshes:       result.Meshes,
		FeatureTable: r.FeatureTable(),
		Failed:       result.Failed,
	}, nil
}
