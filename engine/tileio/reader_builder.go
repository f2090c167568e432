package tileio

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

// ReaderBuilderOption is a functional option for configuring a Reader via NewReader.
type ReaderBuilderOption func(*Reader)

// WithMaterialResolver overrides how scene materials become display params.
//
// Parameters:
//   - resolver: the resolver to use; nil keeps the container default
//
// Returns:
//   - ReaderBuilderOption: a function that applies the resolver to a reader
func WithMaterialResolver(resolver MaterialResolver) ReaderBuilderOption {
	return func(r *Reader) {
		if resolver != nil {
			r.materials = resolver
		}
	}
}

// WithFeatureTable sets the feature table shared by every mesh the reader produces.
// Per-vertex _BATCHID values index into this table.
//
// Parameters:
//   - table: the tile's feature table
//
// Returns:
//   - ReaderBuilderOption: a function that applies the feature table to a reader
func WithFeatureTable(table *mesh.FeatureTable) ReaderBuilderOption {
	return func(r *Reader) {
		r.features = table
	}
}

// WithIs2d marks decoded meshes as 2d geometry.
func WithIs2d(is2d bool) ReaderBuilderOption {
	return func(r *Reader) {
		r.is2d = is2d
	}
}

// WithLogger sets the logger used to report primitives that fail to decode.
func WithLogger(logger *slog.Logger) ReaderBuilderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}
