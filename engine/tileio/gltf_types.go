package tileio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var sceneJSON = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrMalformedScene = errors.New("malformed scene JSON")

// AccessorRef names an entry in the accessors table. glTF 1 uses string keys and glTF 2
// array indices; both decode to the table key. The zero value means "not present".
type AccessorRef string

func (r *AccessorRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := sceneJSON.Unmarshal(data, &s); err == nil {
		*r = AccessorRef(s)
		return nil
	}
	var n int
	if err := sceneJSON.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: reference %s is neither a name nor an index", ErrMalformedScene, string(data))
	}
	*r = AccessorRef(strconv.Itoa(n))
	return nil
}

// namedTable is a top-level glTF table keyed by name. An array decodes with keys "0", "1", ...
type namedTable[T any] map[string]T

func (t *namedTable[T]) UnmarshalJSON(data []byte) error {
	var byName map[string]T
	if err := sceneJSON.Unmarshal(data, &byName); err == nil {
		*t = byName
		return nil
	}
	var byIndex []T
	if err := sceneJSON.Unmarshal(data, &byIndex); err != nil {
		return fmt.Errorf("%w: table is neither an object nor an array", ErrMalformedScene)
	}
	m := make(map[string]T, len(byIndex))
	for i, v := range byIndex {
		m[strconv.Itoa(i)] = v
	}
	*t = m
	return nil
}

// AccessorFields maps accessor field names (POSITION, indices, ...) to accessor references.
type AccessorFields map[string]AccessorRef

type sceneDocument struct {
	Meshes      namedTable[sceneMesh]       `json:"meshes"`
	Materials   namedTable[json.RawMessage] `json:"materials"`
	Accessors   namedTable[sceneAccessor]   `json:"accessors"`
	BufferViews namedTable[sceneBufferView] `json:"bufferViews"`
}

func (d *sceneDocument) validate() error {
	switch {
	case d.Meshes == nil:
		return fmt.Errorf("%w: no meshes table", ErrMalformedScene)
	case d.Materials == nil:
		return fmt.Errorf("%w: no materials table", ErrMalformedScene)
	case d.Accessors == nil:
		return fmt.Errorf("%w: no accessors table", ErrMalformedScene)
	case d.BufferViews == nil:
		return fmt.Errorf("%w: no bufferViews table", ErrMalformedScene)
	}
	return nil
}

type sceneMesh struct {
	Primitives []scenePrimitive `json:"primitives"`
}

type scenePrimitive struct {
	Attributes AccessorFields `json:"attributes"`
	Indices    AccessorRef    `json:"indices"`
	Material   AccessorRef    `json:"material"`
	Type       *int           `json:"type"`
	IsPlanar   bool           `json:"isPlanar"`
	ColorTable []uint32       `json:"colorTable"`
}

// fields returns the accessor fields of the primitive with "indices" folded in.
func (p *scenePrimitive) fields() AccessorFields {
	f := make(AccessorFields, len(p.Attributes)+1)
	for k, v := range p.Attributes {
		f[k] = v
	}
	if p.Indices != "" {
		f["indices"] = p.Indices
	}
	return f
}

type sceneAccessor struct {
	BufferView    AccessorRef        `json:"bufferView"`
	ByteOffset    int                `json:"byteOffset"`
	ComponentType DataType           `json:"componentType"`
	Count         int                `json:"count"`
	Type          string             `json:"type"`
	Extensions    accessorExtensions `json:"extensions"`
}

type accessorExtensions struct {
	Quantized *quantizedAttributes `json:"WEB3D_quantized_attributes"`
}

type quantizedAttributes struct {
	DecodedMin []float64 `json:"decodedMin"`
	DecodedMax []float64 `json:"decodedMax"`
}

type sceneBufferView struct {
	Buffer     AccessorRef `json:"buffer"`
	ByteOffset int         `json:"byteOffset"`
	ByteLength int         `json:"byteLength"`
	ByteStride int         `json:"byteStride"`
}

func parseScene(data []byte) (*sceneDocument, error) {
	var doc sceneDocument
	if err := sceneJSON.Unmarshal(data, &doc); err != nil {
		if errors.Is(err, ErrMalformedScene) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
