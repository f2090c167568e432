package loader

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
)

// loaderBackend defines the generic interface for decoding fetched tile content.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode converts encoded tile bytes into meshes. It runs on worker goroutines and must not
	// touch shared state.
	//
	// Parameters:
	//   - data: the encoded tile
	//
	// Returns:
	//   - *tileio.Content: the decoded content
	//   - error: error if the tile as a whole cannot be decoded
	Decode(data []byte) (*tileio.Content, error)
}
