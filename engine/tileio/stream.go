package tileio

import (
	"encoding/binary"
)

// StreamBuffer is a read cursor over a tile's bytes. All multi-byte values are little-endian
// regardless of host byte order.
//
// Reads never fail individually. Once any read or advance would move the cursor beyond the
// end of the buffer the stream becomes past-the-end: the cursor is pinned to the end and every
// later read yields zero or an empty slice. Callers check IsPastTheEnd once after a sequence
// of reads instead of after each call.
type StreamBuffer struct {
	data    []byte
	pos     int
	pastEnd bool
}

// NewStreamBuffer creates a stream positioned at the first byte of data.
//
// Parameters:
//   - data: the bytes to read; the stream does not copy them
//
// Returns:
//   - *StreamBuffer: the new stream
func NewStreamBuffer(data []byte) *StreamBuffer {
	return &StreamBuffer{data: data}
}

// Len returns the total length of the underlying buffer.
func (s *StreamBuffer) Len() int { return len(s.data) }

// CurPos returns the cursor position.
func (s *StreamBuffer) CurPos() int { return s.pos }

// Remaining returns the number of unread bytes.
func (s *StreamBuffer) Remaining() int { return len(s.data) - s.pos }

// IsPastTheEnd reports whether any read ran beyond the end of the buffer.
func (s *StreamBuffer) IsPastTheEnd() bool { return s.pastEnd }

// Bytes returns the underlying buffer.
func (s *StreamBuffer) Bytes() []byte { return s.data }

// Rewind moves the cursor to an absolute position and clears the past-the-end state.
// Positions outside the buffer leave the stream past-the-end.
func (s *StreamBuffer) Rewind(pos int) {
	s.pastEnd = false
	s.pos = 0
	s.Advance(pos)
}

// take consumes n bytes, returning false and poisoning the stream if fewer remain.
func (s *StreamBuffer) take(n int) (int, bool) {
	if s.pastEnd {
		return 0, false
	}
	if n < 0 || n > len(s.data)-s.pos {
		s.pastEnd = true
		s.pos = len(s.data)
		return 0, false
	}
	start := s.pos
	s.pos += n
	return start, true
}

// Advance skips n bytes.
//
// Parameters:
//   - n: number of bytes to skip
//
// Returns:
//   - bool: false if the skip ran past the end (the stream is now past-the-end)
func (s *StreamBuffer) Advance(n int) bool {
	_, ok := s.take(n)
	return ok
}

// NextUint32 reads a little-endian uint32, or 0 once past the end.
func (s *StreamBuffer) NextUint32() uint32 {
	start, ok := s.take(4)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(s.data[start:])
}

// PeekUint32 reads a little-endian uint32 without moving the cursor. It returns false if
// fewer than four bytes remain; the past-the-end state is not changed.
func (s *StreamBuffer) PeekUint32() (uint32, bool) {
	if s.pastEnd || len(s.data)-s.pos < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(s.data[s.pos:]), true
}

// NextBytes returns the next n bytes as a sub-slice of the buffer, or nil once past the end.
//
// Parameters:
//   - n: number of bytes
//
// Returns:
//   - []byte: a view of the bytes (not a copy)
func (s *StreamBuffer) NextBytes(n int) []byte {
	start, ok := s.take(n)
	if !ok {
		return nil
	}
	return s.data[start : start+n : start+n]
}
