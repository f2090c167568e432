package mesh

// ColorDef is a packed 32-bit colour laid out as 0xTTBBGGRR, where TT is transparency
// (0 = opaque).
type ColorDef uint32

// NewColorDef packs red, green, blue and transparency components.
func NewColorDef(r, g, b, t uint8) ColorDef {
	return ColorDef(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(t)<<24)
}

// Components unpacks the colour into red, green, blue and transparency.
func (c ColorDef) Components() (r, g, b, t uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// IsTransparent reports whether the colour carries any transparency.
func (c ColorDef) IsTransparent() bool {
	return uint8(c>>24) != 0
}

// maxColorMapEntries bounds the colour table so indices fit in 16 bits.
const maxColorMapEntries = 0xffff

// ColorMap is an insertion-ordered table of distinct colours referenced by 16-bit
// per-vertex indices.
type ColorMap struct {
	entries []ColorDef
	lookup  map[ColorDef]uint16
}

// NewColorMap creates an empty colour table.
func NewColorMap() *ColorMap {
	return &ColorMap{lookup: make(map[ColorDef]uint16)}
}

// Insert adds a colour if absent and returns its index. It fails once the table is full.
//
// Parameters:
//   - c: the colour to insert
//
// Returns:
//   - uint16: index of the colour
//   - bool: false if the table already holds the maximum number of entries
func (m *ColorMap) Insert(c ColorDef) (uint16, bool) {
	if idx, ok := m.lookup[c]; ok {
		return idx, true
	}
	if len(m.entries) >= maxColorMapEntries {
		return 0, false
	}
	idx := uint16(len(m.entries))
	m.entries = append(m.entries, c)
	m.lookup[c] = idx
	return idx, true
}

// Len returns the number of distinct colours.
func (m *ColorMap) Len() int { return len(m.entries) }

// IsUniform reports whether the table holds exactly one colour.
func (m *ColorMap) IsUniform() bool { return len(m.entries) == 1 }

// At returns the colour at index i.
func (m *ColorMap) At(i int) ColorDef { return m.entries[i] }

// Entries returns the colours in index order. The slice must not be modified.
func (m *ColorMap) Entries() []ColorDef { return m.entries }

// HasTransparency reports whether any entry is transparent.
func (m *ColorMap) HasTransparency() bool {
	for _, c := range m.entries {
		if c.IsTransparent() {
			return true
		}
	}
	return false
}
