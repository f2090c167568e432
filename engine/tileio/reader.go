package tileio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

var (
	ErrTruncated            = errors.New("tile content truncated")
	ErrMissingMaterial      = errors.New("primitive has no material")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrPositionEncoding     = errors.New("positions are not quantized unsigned shorts")
	ErrIndexCount           = errors.New("triangle index count is not a multiple of three")
	ErrColorIndicesRequired = errors.New("non-uniform colour table without colour indices")
	ErrColorTableFull       = errors.New("colour table is full")
	ErrFeatureTableFull     = errors.New("feature table is full")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive type")
)

// b3dmDefaultColor is the colour table entry used for batched content.
const b3dmDefaultColor = mesh.ColorDef(0x777777)

// Reader decodes the meshes of one tile. It is created per tile, read once, and discarded;
// the meshes it returns reference no reader state.
type Reader struct {
	header     ContainerHeader
	doc        *sceneDocument
	binaryData []byte
	materials  MaterialResolver
	features   *mesh.FeatureTable
	is2d       bool
	logger     *slog.Logger
}

// ReadResult is the outcome of decoding every primitive of a tile.
type ReadResult struct {
	Meshes []*mesh.Mesh
	// Failed counts primitives that were skipped because they could not be decoded.
	Failed int
}

// NewReader validates the container headers, parses the scene JSON and locates the binary
// chunk. Content of either container kind is accepted.
//
// Parameters:
//   - data: the complete tile content
//   - options: functional options (materials, feature table, logger)
//
// Returns:
//   - *Reader: a reader ready to decode primitives
//   - error: if the headers are invalid, the content is truncated, or the scene JSON is malformed
func NewReader(data []byte, options ...ReaderBuilderOption) (*Reader, error) {
	stream := NewStreamBuffer(data)
	header, err := ReadContainerHeader(stream)
	if err != nil {
		return nil, err
	}

	scene := stream.NextBytes(int(header.Gltf.SceneStrLength))
	if stream.IsPastTheEnd() {
		return nil, fmt.Errorf("%w: scene JSON declares %d bytes, %d remain",
			ErrTruncated, header.Gltf.SceneStrLength, stream.Remaining())
	}
	doc, err := parseScene(scene)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		header:     header,
		doc:        doc,
		binaryData: stream.Bytes()[stream.CurPos():],
		materials:  SceneMaterials,
		logger:     slog.Default().With("component", "tileio"),
	}
	if header.Kind == ContainerB3dm {
		r.materials = GreyMaterials
		r.features = mesh.NewFeatureTable(1)
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Header returns the container headers read by NewReader.
func (r *Reader) Header() ContainerHeader { return r.header }

// FeatureTable returns the table the decoded meshes' features index into, or nil.
func (r *Reader) FeatureTable() *mesh.FeatureTable { return r.features }

// BufferView resolves an accessor field to its byte window in the binary chunk.
//
// Parameters:
//   - fields: the accessor fields of a primitive
//   - name: the field to resolve, e.g. "POSITION" or "indices"
//
// Returns:
//   - *BufferView: the bytes, element count and stored component type
//   - error: ErrAccessorNotFound if any link of the chain is missing, ErrOutOfRange if the
//     window starts outside the binary chunk
func (r *Reader) BufferView(fields AccessorFields, name string) (*BufferView, error) {
	return r.doc.bufferView(r.binaryData, fields, name)
}

// Read decodes every primitive of every mesh. Meshes are visited in key order so results are
// deterministic. A primitive that fails to decode is logged and skipped; it never aborts the
// tile.
//
// Returns:
//   - ReadResult: the decoded meshes and the number of skipped primitives
func (r *Reader) Read() ReadResult {
	var result ReadResult
	keys := make([]string, 0, len(r.doc.Meshes))
	for k := range r.doc.Meshes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		for i := range r.doc.Meshes[key].Primitives {
			m, err := r.readMeshPrimitive(&r.doc.Meshes[key].Primitives[i])
			if err != nil {
				result.Failed++
				r.logger.Warn("skipping primitive", "mesh", key, "primitive", i, "error", err)
				continue
			}
			result.Meshes = append(result.Meshes, m)
		}
	}
	return result
}

func (r *Reader) readMeshPrimitive(prim *scenePrimitive) (*mesh.Mesh, error) {
	params, err := r.displayParams(prim)
	if err != nil {
		return nil, err
	}

	typ := mesh.PrimitiveMesh
	if prim.Type != nil {
		typ = mesh.PrimitiveType(*prim.Type)
	}

	m := mesh.NewMesh(params, typ,
		mesh.WithFeatureTable(r.features),
		mesh.WithIs2d(r.is2d),
		mesh.WithIsPlanar(prim.IsPlanar),
	)
	fields := prim.fields()

	if err := r.readVertices(m, fields); err != nil {
		return nil, err
	}
	if err := r.readColorTable(m, prim); err != nil {
		return nil, err
	}
	if err := r.readColorIndices(m, fields); err != nil {
		return nil, err
	}
	if err := r.readFeatures(m, fields); err != nil {
		return nil, err
	}

	switch typ {
	case mesh.PrimitiveMesh:
		if err := r.readMeshIndices(m, fields); err != nil {
			return nil, err
		}
		if !params.IgnoreLighting {
			if err := r.readNormals(m, fields); err != nil {
				return nil, err
			}
		}
		if !params.IgnoreTexture {
			r.readUVParams(m, fields)
		}
	case mesh.PrimitivePolyline, mesh.PrimitivePoint:
		polylines, err := r.readPolylines(fields, "indices", typ == mesh.PrimitivePoint, uint32(m.VertexCount()))
		if err != nil {
			return nil, err
		}
		m.Polylines = polylines
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPrimitive, typ)
	}
	return m, nil
}

func (r *Reader) displayParams(prim *scenePrimitive) (*mesh.DisplayParams, error) {
	if prim.Material == "" {
		return nil, ErrMissingMaterial
	}
	raw, ok := r.doc.Materials[string(prim.Material)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMaterialNotFound, prim.Material)
	}
	params, err := r.materials.ResolveMaterial(string(prim.Material), raw)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("%w: %q resolved to nothing", ErrMaterialNotFound, prim.Material)
	}
	return params, nil
}

func (r *Reader) readVertices(m *mesh.Mesh, fields AccessorFields) error {
	view, err := r.BufferView(fields, "POSITION")
	if err != nil {
		return err
	}
	if view.Type != TypeUnsignedShort {
		return fmt.Errorf("%w: component type %s", ErrPositionEncoding, view.Type)
	}
	q := view.accessor.Extensions.Quantized
	if q == nil || len(q.DecodedMin) != 3 || len(q.DecodedMax) != 3 {
		return fmt.Errorf("%w: missing quantization range", ErrPositionEncoding)
	}
	data, err := view.ToBufferData(TypeUnsignedShort)
	if err != nil {
		return err
	}
	if view.Count > data.Len()/3 {
		return fmt.Errorf("%w: %d positions declared, %d values present", ErrOutOfRange, view.Count, data.Len())
	}

	rng := common.NewRange(
		common.Point3d{q.DecodedMin[0], q.DecodedMin[1], q.DecodedMin[2]},
		common.Point3d{q.DecodedMax[0], q.DecodedMax[1], q.DecodedMax[2]},
	)
	m.Points.Reset(mesh.QParamsFromRange(rng))
	for i := 0; i < view.Count; i++ {
		m.Points.Push(mesh.QPoint3d{
			uint16(data.Uint(3 * i)),
			uint16(data.Uint(3*i + 1)),
			uint16(data.Uint(3*i + 2)),
		})
	}
	return nil
}

func (r *Reader) readColorTable(m *mesh.Mesh, prim *scenePrimitive) error {
	switch {
	case r.header.Kind == ContainerB3dm:
		m.ColorMap.Insert(b3dmDefaultColor)
	case len(prim.ColorTable) > 0:
		for _, c := range prim.ColorTable {
			if _, ok := m.ColorMap.Insert(mesh.ColorDef(c)); !ok {
				return ErrColorTableFull
			}
		}
	default:
		m.ColorMap.Insert(m.DisplayParams.FillColor)
	}
	return nil
}

func (r *Reader) readColorIndices(m *mesh.Mesh, fields AccessorFields) error {
	view, err := r.BufferView(fields, "_COLORINDEX")
	if errors.Is(err, ErrAccessorNotFound) {
		if m.ColorMap.Len() != 1 {
			return ErrColorIndicesRequired
		}
		return nil
	}
	if err != nil {
		return err
	}

	data, err := view.ToBufferData(TypeUnsignedShort)
	if errors.Is(err, ErrNotConvertible) {
		r.logger.Debug("ignoring colour indices", "error", err)
		if m.ColorMap.Len() != 1 {
			return ErrColorIndicesRequired
		}
		return nil
	}
	if err != nil {
		return err
	}
	if view.Count != m.VertexCount() || view.Count > data.Len() {
		return fmt.Errorf("%w: %d colour indices for %d vertices", ErrOutOfRange, view.Count, m.VertexCount())
	}
	colors := make([]uint16, view.Count)
	for i := range colors {
		idx := data.Uint(i)
		if int(idx) >= m.ColorMap.Len() {
			return fmt.Errorf("%w: colour index %d of %d", ErrOutOfRange, idx, m.ColorMap.Len())
		}
		colors[i] = uint16(idx)
	}
	m.Colors = colors
	return nil
}

func (r *Reader) readFeatures(m *mesh.Mesh, fields AccessorFields) error {
	if m.Features == nil {
		return nil
	}

	var view *BufferView
	if r.header.Kind != ContainerB3dm {
		var err error
		view, err = r.BufferView(fields, "_BATCHID")
		if err != nil && !errors.Is(err, ErrAccessorNotFound) {
			return err
		}
	}
	if view == nil {
		if !m.Features.Add(mesh.Feature{}, m.VertexCount()) {
			return ErrFeatureTableFull
		}
		return nil
	}

	data, err := view.ToBufferData(TypeUInt32)
	if err != nil {
		return err
	}
	if view.Count != m.VertexCount() || view.Count > data.Len() {
		return fmt.Errorf("%w: %d batch ids for %d vertices", ErrOutOfRange, view.Count, m.VertexCount())
	}
	indices := make([]uint32, view.Count)
	for i := range indices {
		indices[i] = data.Uint(i)
		if int(indices[i]) >= m.Features.Table.Len() {
			return fmt.Errorf("%w: batch id %d of %d features", ErrOutOfRange, indices[i], m.Features.Table.Len())
		}
	}
	m.Features.SetIndices(indices)
	return nil
}

func (r *Reader) readMeshIndices(m *mesh.Mesh, fields AccessorFields) error {
	view, err := r.BufferView(fields, "indices")
	if err != nil {
		return err
	}
	if !common.Assert(view.Count%3 == 0, "triangle index count %d", view.Count) {
		return fmt.Errorf("%w: %d", ErrIndexCount, view.Count)
	}
	data, err := view.ToBufferData(TypeUInt32)
	if err != nil {
		return err
	}
	if view.Count > data.Len() {
		return fmt.Errorf("%w: %d indices declared, %d present", ErrOutOfRange, view.Count, data.Len())
	}

	vertexCount := uint32(m.VertexCount())
	m.Indices = make([]uint32, 0, view.Count)
	for i := 0; i < view.Count; i += 3 {
		a, b, c := data.Uint(i), data.Uint(i+1), data.Uint(i+2)
		if a >= vertexCount || b >= vertexCount || c >= vertexCount {
			return fmt.Errorf("%w: triangle %d references a vertex beyond %d", ErrOutOfRange, i/3, vertexCount)
		}
		m.AddTriangle(a, b, c)
	}
	return nil
}

// readNormals decodes two-byte oct-encoded normals. A primitive without normals is valid.
func (r *Reader) readNormals(m *mesh.Mesh, fields AccessorFields) error {
	view, err := r.BufferView(fields, "NORMAL")
	if errors.Is(err, ErrAccessorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	data, err := view.ToBufferData(TypeUnsignedByte)
	if err != nil {
		return err
	}
	if view.Count > data.Len()/2 {
		return fmt.Errorf("%w: %d normals declared, %d bytes present", ErrOutOfRange, view.Count, data.Len())
	}
	m.Normals = make([]mesh.OctEncodedNormal, view.Count)
	for i := range m.Normals {
		m.Normals[i] = mesh.OctEncodedNormal(data.Uint(2*i) | data.Uint(2*i+1)<<8)
	}
	return nil
}

// readUVParams decodes texture coordinates. Missing or unreadable coordinates leave the mesh
// untextured.
func (r *Reader) readUVParams(m *mesh.Mesh, fields AccessorFields) {
	view, err := r.BufferView(fields, "TEXCOORD_0")
	if err != nil {
		return
	}
	data, err := view.ToBufferData(TypeFloat)
	if err != nil || view.Count > data.Len()/2 {
		r.logger.Debug("ignoring texture coordinates", "error", err)
		return
	}
	m.UVParams = make([][2]float32, view.Count)
	for i := range m.UVParams {
		m.UVParams[i] = [2]float32{data.Float(2 * i), data.Float(2*i + 1)}
	}
}

// readPolylines walks count variable-length records of the form
// { startDistance float32, numIndices uint32, indices [numIndices]uint16|uint32 }.
// Every record's bytes are consumed whether or not it is kept. Records with fewer than two
// indices are dropped unless the polylines are disjoint points, and empty records are always
// dropped.
func (r *Reader) readPolylines(fields AccessorFields, name string, disjoint bool, vertexCount uint32) ([]mesh.Polyline, error) {
	view, err := r.BufferView(fields, name)
	if err != nil {
		return nil, err
	}
	size := uint64(view.Type.Size())
	if view.Type != TypeUnsignedShort && view.Type != TypeUInt32 {
		return nil, fmt.Errorf("%w: polyline indices of type %s", ErrUnsupportedComponentType, view.Type)
	}

	data := view.Data
	polylines := make([]mesh.Polyline, 0, min(view.Count, len(data)/8))
	pos := uint64(0)
	for p := 0; p < view.Count; p++ {
		if pos+8 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: polyline %d header at byte %d", ErrTruncated, p, pos)
		}
		startDistance := math.Float32frombits(binary.LittleEndian.Uint32(data[pos:]))
		numIndices := uint64(binary.LittleEndian.Uint32(data[pos+4:]))
		pos += 8

		need := numIndices * size
		if pos+need > uint64(len(data)) {
			return nil, fmt.Errorf("%w: polyline %d needs %d index bytes at byte %d", ErrTruncated, p, need, pos)
		}
		if numIndices == 0 || (numIndices < 2 && !disjoint) {
			pos += need
			continue
		}

		indices := make([]uint32, numIndices)
		for i := range indices {
			if size == 2 {
				indices[i] = uint32(binary.LittleEndian.Uint16(data[pos:]))
			} else {
				indices[i] = binary.LittleEndian.Uint32(data[pos:])
			}
			if indices[i] >= vertexCount {
				return nil, fmt.Errorf("%w: polyline %d references vertex %d of %d", ErrOutOfRange, p, indices[i], vertexCount)
			}
			pos += size
		}
		polylines = append(polylines, mesh.Polyline{StartDistance: startDistance, Indices: indices})
	}
	return polylines, nil
}
