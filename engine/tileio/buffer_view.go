package tileio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// DataType is a glTF accessor component type.
type DataType uint32

const (
	TypeUnsignedByte  DataType = 0x1401
	TypeUnsignedShort DataType = 0x1403
	TypeUInt32        DataType = 0x1405
	TypeFloat         DataType = 0x1406
)

func (t DataType) String() string {
	switch t {
	case TypeUnsignedByte:
		return "UnsignedByte"
	case TypeUnsignedShort:
		return "UnsignedShort"
	case TypeUInt32:
		return "UInt32"
	case TypeFloat:
		return "Float"
	default:
		return fmt.Sprintf("DataType(0x%x)", uint32(t))
	}
}

// Size returns the size in bytes of one component, or 0 for unknown types.
func (t DataType) Size() int {
	switch t {
	case TypeUnsignedByte:
		return 1
	case TypeUnsignedShort:
		return 2
	case TypeUInt32, TypeFloat:
		return 4
	default:
		return 0
	}
}

var (
	ErrAccessorNotFound         = errors.New("accessor not found")
	ErrOutOfRange               = errors.New("accessor data out of range")
	ErrNotConvertible           = errors.New("accessor data cannot be converted to the requested type")
	ErrUnsupportedComponentType = errors.New("unsupported accessor component type")
)

// BufferView is the raw byte window an accessor resolves to.
type BufferView struct {
	Data     []byte
	Count    int
	Type     DataType
	accessor *sceneAccessor
}

// BufferData is a typed, little-endian decoded view of accessor bytes.
// Exactly one of the backing slices is populated, according to Type.
type BufferData struct {
	Type  DataType
	Count int

	u8  []uint8
	u16 []uint16
	u32 []uint32
	f32 []float32
}

// ToBufferData decodes the view as the desired type.
//
// An integer view may be read as any integer type at least as wide as its stored type; values
// are widened without change. Float views can only be read as Float, and float data is never
// produced from integer data.
//
// Parameters:
//   - desired: the type the caller wants
//
// Returns:
//   - *BufferData: the decoded values, typed as stored
//   - error: ErrNotConvertible if the stored type cannot serve the desired one
func (v *BufferView) ToBufferData(desired DataType) (*BufferData, error) {
	if !convertible(v.Type, desired) {
		return nil, fmt.Errorf("%w: %s as %s", ErrNotConvertible, v.Type, desired)
	}
	return decodeBufferData(v.Data, v.Type, v.Count)
}

func convertible(actual, desired DataType) bool {
	switch desired {
	case TypeFloat:
		return actual == TypeFloat
	case TypeUnsignedByte:
		return actual == TypeUnsignedByte
	case TypeUnsignedShort:
		return actual == TypeUnsignedByte || actual == TypeUnsignedShort
	case TypeUInt32:
		return actual == TypeUnsignedByte || actual == TypeUnsignedShort || actual == TypeUInt32
	default:
		return false
	}
}

func decodeBufferData(data []byte, typ DataType, count int) (*BufferData, error) {
	size := typ.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedComponentType, typ)
	}
	n := len(data) / size
	d := &BufferData{Type: typ, Count: count}
	switch typ {
	case TypeUnsignedByte:
		d.u8 = data[:n]
	case TypeUnsignedShort:
		d.u16 = make([]uint16, n)
		for i := range d.u16 {
			d.u16[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
	case TypeUInt32:
		d.u32 = make([]uint32, n)
		for i := range d.u32 {
			d.u32[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	case TypeFloat:
		d.f32 = make([]float32, n)
		for i := range d.f32 {
			d.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	}
	return d, nil
}

// Len returns the number of decoded elements available, which can exceed Count when the
// buffer view is longer than the accessor.
func (d *BufferData) Len() int {
	switch d.Type {
	case TypeUnsignedByte:
		return len(d.u8)
	case TypeUnsignedShort:
		return len(d.u16)
	case TypeUInt32:
		return len(d.u32)
	case TypeFloat:
		return len(d.f32)
	default:
		return 0
	}
}

// Uint returns element i widened to uint32. It panics if the data is float.
func (d *BufferData) Uint(i int) uint32 {
	switch d.Type {
	case TypeUnsignedByte:
		return uint32(d.u8[i])
	case TypeUnsignedShort:
		return uint32(d.u16[i])
	case TypeUInt32:
		return d.u32[i]
	default:
		panic(fmt.Sprintf("tileio: Uint on %s buffer data", d.Type))
	}
}

// Float returns element i of float data, or the integer value converted to float32.
func (d *BufferData) Float(i int) float32 {
	if d.Type == TypeFloat {
		return d.f32[i]
	}
	return float32(d.Uint(i))
}

// bufferView resolves the accessor named by fields[name] to its byte window in binary.
// The window starts at bufferView.byteOffset + accessor.byteOffset and spans the buffer view's
// byteLength, clipped to the end of the binary chunk.
func (doc *sceneDocument) bufferView(binaryData []byte, fields AccessorFields, name string) (*BufferView, error) {
	ref, ok := fields[name]
	if !ok || ref == "" {
		return nil, fmt.Errorf("%w: no %q field", ErrAccessorNotFound, name)
	}
	acc, ok := doc.Accessors[string(ref)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrAccessorNotFound, ref, name)
	}
	bv, ok := doc.BufferViews[string(acc.BufferView)]
	if !ok {
		return nil, fmt.Errorf("%w: buffer view %q of accessor %q", ErrAccessorNotFound, acc.BufferView, ref)
	}
	if acc.ComponentType.Size() == 0 {
		return nil, fmt.Errorf("%w: %s in accessor %q", ErrUnsupportedComponentType, acc.ComponentType, ref)
	}

	offset := bv.ByteOffset + acc.ByteOffset
	if bv.ByteOffset < 0 || acc.ByteOffset < 0 || offset < 0 || bv.ByteLength < 0 || acc.Count < 0 || offset > len(binaryData) {
		return nil, fmt.Errorf("%w: accessor %q starts at %d of %d bytes", ErrOutOfRange, ref, offset, len(binaryData))
	}
	end := len(binaryData)
	if bv.ByteLength < end-offset {
		end = offset + bv.ByteLength
	}

	return &BufferView{
		Data:     binaryData[offset:end:end],
		Count:    acc.Count,
		Type:     acc.ComponentType,
		accessor: &acc,
	}, nil
}
