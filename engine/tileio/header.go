package tileio

import (
	"errors"
	"fmt"
)

// Format is the 4-byte magic number at the start of a tile, read as a little-endian uint32.
type Format uint32

const (
	FormatUnknown Format = 0
	FormatB3dm    Format = 0x6d643362 // "b3dm"
	FormatGltf    Format = 0x46546c67 // "glTF"
	FormatPnts    Format = 0x73746e70 // "pnts"
	FormatIModel  Format = 0x6c644d69 // "iMdl"
	FormatCmpt    Format = 0x74706d63 // "cmpt"
	FormatI3dm    Format = 0x6d643369 // "i3dm"
)

func (f Format) String() string {
	switch f {
	case FormatB3dm:
		return "b3dm"
	case FormatGltf:
		return "glTF"
	case FormatPnts:
		return "pnts"
	case FormatIModel:
		return "iMdl"
	case FormatCmpt:
		return "cmpt"
	case FormatI3dm:
		return "i3dm"
	default:
		return fmt.Sprintf("Format(0x%08x)", uint32(f))
	}
}

const (
	gltfVersion1    = 1
	gltfVersion2    = 2
	gltfSceneFormat = 0
	b3dmVersion     = 1
)

var (
	ErrInvalidHeader     = errors.New("invalid tile header")
	ErrUnsupportedFormat = errors.New("unsupported tile format")
)

// PeekFormat returns the magic number at the cursor without consuming it.
func PeekFormat(s *StreamBuffer) Format {
	v, ok := s.PeekUint32()
	if !ok {
		return FormatUnknown
	}
	return Format(v)
}

// Header is the fixed prefix shared by every tile container: a magic number and a version.
type Header struct {
	Format  Format
	Version uint32
	valid   bool
}

func readHeader(s *StreamBuffer) Header {
	return Header{
		Format:  Format(s.NextUint32()),
		Version: s.NextUint32(),
		valid:   true,
	}
}

// IsValid reports whether the header was fully read and its fields match known constants.
func (h *Header) IsValid() bool { return h.valid }

func (h *Header) invalidate() { h.valid = false }

// GltfHeader is the binary glTF header that precedes the scene JSON.
type GltfHeader struct {
	Header
	GltfLength     uint32
	SceneStrLength uint32
	SceneFormat    uint32
}

// ReadGltfHeader reads a binary glTF header at the cursor. The header is invalid if the
// stream ran out of bytes or the magic, version, or scene format is not recognised.
//
// Parameters:
//   - s: the stream, positioned at the glTF magic
//
// Returns:
//   - GltfHeader: the header; check IsValid before using the lengths
func ReadGltfHeader(s *StreamBuffer) GltfHeader {
	h := GltfHeader{Header: readHeader(s)}
	h.GltfLength = s.NextUint32()
	h.SceneStrLength = s.NextUint32()
	h.SceneFormat = s.NextUint32()

	if s.IsPastTheEnd() ||
		h.Format != FormatGltf ||
		(h.Version != gltfVersion1 && h.Version != gltfVersion2) ||
		h.SceneFormat != gltfSceneFormat {
		h.invalidate()
	}
	return h
}

// B3dmHeader is the batched-3D-model header. Its four side tables are skipped; the glTF
// payload follows them.
type B3dmHeader struct {
	Header
	Length                   uint32
	FeatureTableJSONLength   uint32
	FeatureTableBinaryLength uint32
	BatchTableJSONLength     uint32
	BatchTableBinaryLength   uint32
}

// ReadB3dmHeader reads a B3DM header and skips the side tables that follow it, leaving the
// cursor at the embedded glTF header.
//
// Parameters:
//   - s: the stream, positioned at the b3dm magic
//
// Returns:
//   - B3dmHeader: the header; invalid if any declared length runs past the end of the buffer
func ReadB3dmHeader(s *StreamBuffer) B3dmHeader {
	h := B3dmHeader{Header: readHeader(s)}
	h.Length = s.NextUint32()
	h.FeatureTableJSONLength = s.NextUint32()
	h.FeatureTableBinaryLength = s.NextUint32()
	h.BatchTableJSONLength = s.NextUint32()
	h.BatchTableBinaryLength = s.NextUint32()

	for _, n := range []uint32{
		h.FeatureTableJSONLength,
		h.FeatureTableBinaryLength,
		h.BatchTableJSONLength,
		h.BatchTableBinaryLength,
	} {
		s.Advance(int(n))
	}

	if s.IsPastTheEnd() || h.Format != FormatB3dm || h.Version != b3dmVersion {
		h.invalidate()
	}
	return h
}

// ContainerKind identifies how the glTF payload of a tile is wrapped.
type ContainerKind int

const (
	ContainerGltf ContainerKind = iota
	ContainerB3dm
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerGltf:
		return "glTF"
	case ContainerB3dm:
		return "b3dm"
	default:
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
}

// ContainerHeader is every header read before the scene JSON. Batched is nil for plain glTF.
type ContainerHeader struct {
	Kind    ContainerKind
	Batched *B3dmHeader
	Gltf    GltfHeader
}

// ReadContainerHeader dispatches on the magic number and reads the container header,
// leaving the cursor at the start of the scene JSON.
//
// Parameters:
//   - s: the stream, positioned at the start of the tile
//
// Returns:
//   - ContainerHeader: the headers read
//   - error: ErrUnsupportedFormat for unknown magic, ErrInvalidHeader for bad or truncated headers
func ReadContainerHeader(s *StreamBuffer) (ContainerHeader, error) {
	switch format := PeekFormat(s); format {
	case FormatGltf:
		g := ReadGltfHeader(s)
		if !g.IsValid() {
			return ContainerHeader{}, fmt.Errorf("%w: glTF", ErrInvalidHeader)
		}
		return ContainerHeader{Kind: ContainerGltf, Gltf: g}, nil
	case FormatB3dm:
		b := ReadB3dmHeader(s)
		if !b.IsValid() {
			return ContainerHeader{}, fmt.Errorf("%w: b3dm", ErrInvalidHeader)
		}
		g := ReadGltfHeader(s)
		if !g.IsValid() {
			return ContainerHeader{}, fmt.Errorf("%w: glTF inside b3dm", ErrInvalidHeader)
		}
		return ContainerHeader{Kind: ContainerB3dm, Batched: &b, Gltf: g}, nil
	default:
		return ContainerHeader{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
