package loader

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	options []tileio.ReaderBuilderOption
}

// gltfLoaderBackend is a loaderBackend implementation for glTF and b3dm tiles.
// It delegates to tileio.Decode, which dispatches on the container magic.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - options: reader options applied to every decode
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/b3dm content
func newGLTFLoaderBackend(options ...tileio.ReaderBuilderOption) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{options: options}
}

func (b *gltfLoaderBackendImpl) Decode(data []byte) (*tileio.Content, error) {
	return tileio.Decode(data, b.options...)
}
