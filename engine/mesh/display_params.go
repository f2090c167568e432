package mesh

// DisplayParamsType distinguishes surfaces from linear and text geometry.
type DisplayParamsType int

const (
	DisplayParamsMesh DisplayParamsType = iota
	DisplayParamsLinear
	DisplayParamsText
)

// LinePixels is a 32-bit on/off pattern applied along rendered lines.
type LinePixels uint32

const (
	LinePixelsSolid      LinePixels = 0
	LinePixelsCode1      LinePixels = 0x80808080
	LinePixelsCode2      LinePixels = 0xf8f8f8f8
	LinePixelsCode3      LinePixels = 0xffe0ffe0
	LinePixelsHiddenLine LinePixels = 0xcccccccc
	LinePixelsInvisible  LinePixels = 0x00000001
)

// FillFlags controls when a region is filled.
type FillFlags uint8

const (
	FillNone       FillFlags = 0
	FillByView     FillFlags = 1 << 0
	FillAlways     FillFlags = 1 << 1
	FillBlanking   FillFlags = 1 << 2
	FillBackground FillFlags = 1 << 3
)

// DisplayParams describes how decoded geometry is drawn.
type DisplayParams struct {
	Type       DisplayParamsType
	LineColor  ColorDef
	FillColor  ColorDef
	Width      uint8
	LinePixels LinePixels
	FillFlags  FillFlags

	// IgnoreLighting disables normal decoding and lit shading.
	IgnoreLighting bool
	// IgnoreTexture disables UV parameter decoding.
	IgnoreTexture bool
}

// UniformGrey returns the params used for batched model content that carries no material
// information of its own.
func UniformGrey() *DisplayParams {
	grey := ColorDef(0x77777777)
	return &DisplayParams{
		Type:           DisplayParamsMesh,
		LineColor:      grey,
		FillColor:      grey,
		Width:          1,
		LinePixels:     LinePixelsSolid,
		FillFlags:      FillAlways,
		IgnoreLighting: true,
	}
}
