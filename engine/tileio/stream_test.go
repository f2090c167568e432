package tileio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBufferReads(t *testing.T) {
	s := NewStreamBuffer([]byte{0x01, 0x02, 0x03, 0x04, 0xaa, 0xbb})

	assert.Equal(t, uint32(0x04030201), s.NextUint32())
	assert.Equal(t, 4, s.CurPos())
	assert.Equal(t, []byte{0xaa, 0xbb}, s.NextBytes(2))
	assert.False(t, s.IsPastTheEnd(), "reading up to the last byte is not past the end")
	assert.Equal(t, 0, s.Remaining())
}

func TestStreamBufferPastTheEndIsSticky(t *testing.T) {
	s := NewStreamBuffer([]byte{1, 2, 3, 4, 5, 6})
	s.NextUint32()

	assert.Zero(t, s.NextUint32())
	require.True(t, s.IsPastTheEnd())
	assert.Equal(t, s.Len(), s.CurPos())

	assert.Nil(t, s.NextBytes(0))
	assert.False(t, s.Advance(0))
	assert.True(t, s.IsPastTheEnd())

	s.Rewind(4)
	assert.False(t, s.IsPastTheEnd())
	assert.Equal(t, []byte{5, 6}, s.NextBytes(2))
}

func TestStreamBufferAdvance(t *testing.T) {
	s := NewStreamBuffer(make([]byte, 10))
	require.True(t, s.Advance(10))
	assert.False(t, s.IsPastTheEnd())

	s.Rewind(0)
	assert.False(t, s.Advance(11))
	assert.True(t, s.IsPastTheEnd())

	s.Rewind(0)
	assert.False(t, s.Advance(-1))
	assert.True(t, s.IsPastTheEnd())
}

func TestStreamBufferPeek(t *testing.T) {
	s := NewStreamBuffer([]byte{0x67, 0x6c, 0x54, 0x46})
	v, ok := s.PeekUint32()
	require.True(t, ok)
	assert.Equal(t, uint32(FormatGltf), v)
	assert.Equal(t, 0, s.CurPos())

	s = NewStreamBuffer([]byte{1, 2})
	_, ok = s.PeekUint32()
	assert.False(t, ok)
	assert.False(t, s.IsPastTheEnd())
}
