package tileio

import (
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
)

// MaterialResolver converts a scene material entry into display params.
type MaterialResolver interface {
	// ResolveMaterial returns the display params for the named material.
	//
	// Parameters:
	//   - name: the material's key in the scene's materials table
	//   - raw: the material's JSON
	//
	// Returns:
	//   - *mesh.DisplayParams: how primitives using the material are drawn
	//   - error: if the material cannot be interpreted
	ResolveMaterial(name string, raw json.RawMessage) (*mesh.DisplayParams, error)
}

// MaterialResolverFunc adapts a function to MaterialResolver.
type MaterialResolverFunc func(name string, raw json.RawMessage) (*mesh.DisplayParams, error)

func (f MaterialResolverFunc) ResolveMaterial(name string, raw json.RawMessage) (*mesh.DisplayParams, error) {
	return f(name, raw)
}

// GreyMaterials ignores material content and draws everything unlit uniform grey.
// It is the default for b3dm content, whose materials carry nothing the renderer uses.
var GreyMaterials MaterialResolver = MaterialResolverFunc(func(string, json.RawMessage) (*mesh.DisplayParams, error) {
	return mesh.UniformGrey(), nil
})

// sceneMaterial is the material record written by the tile publisher. Colours are packed
// 0xTTBBGGRR values.
type sceneMaterial struct {
	Type           *int    `json:"type"`
	FillColor      *uint32 `json:"fillColor"`
	LineColor      *uint32 `json:"lineColor"`
	LineWidth      *uint8  `json:"lineWidth"`
	LinePixels     uint32  `json:"linePixels"`
	FillFlags      *uint8  `json:"fillFlags"`
	IgnoreLighting bool    `json:"ignoreLighting"`
	IgnoreTexture  *bool   `json:"ignoreTexture"`
}

const defaultMaterialColor = mesh.ColorDef(0x00ffffff)

// SceneMaterials reads display params from the material JSON. Missing fields fall back to an
// opaque white, lit, one pixel wide solid surface.
var SceneMaterials MaterialResolver = MaterialResolverFunc(func(name string, raw json.RawMessage) (*mesh.DisplayParams, error) {
	var m sceneMaterial
	if err := sceneJSON.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: material %q: %w", ErrMalformedScene, name, err)
	}

	params := &mesh.DisplayParams{
		Type:           mesh.DisplayParamsMesh,
		FillColor:      defaultMaterialColor,
		LineColor:      defaultMaterialColor,
		Width:          1,
		LinePixels:     mesh.LinePixels(m.LinePixels),
		FillFlags:      mesh.FillByView,
		IgnoreLighting: m.IgnoreLighting,
		IgnoreTexture:  true,
	}
	if m.Type != nil {
		params.Type = mesh.DisplayParamsType(*m.Type)
	}
	if m.FillColor != nil {
		params.FillColor = mesh.ColorDef(*m.FillColor)
		params.LineColor = params.FillColor
	}
	if m.LineColor != nil {
		params.LineColor = mesh.ColorDef(*m.LineColor)
	}
	if m.LineWidth != nil {
		params.Width = *m.LineWidth
	}
	if m.FillFlags != nil {
		params.FillFlags = mesh.FillFlags(*m.FillFlags)
	}
	if m.IgnoreTexture != nil {
		params.IgnoreTexture = *m.IgnoreTexture
	}
	return params, nil
})
