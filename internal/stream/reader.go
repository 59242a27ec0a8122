// Package stream provides binary reading utilities for mapped image data.
package stream

import (
	"encoding/binary"
	"errors"
)

// Errors returned by Reader
var (
	ErrUnexpectedEOF = errors.New("stream: unexpected end of data")
	ErrWordSize      = errors.New("stream: unsupported word size")
)

// Reader reads little-endian values from a byte slice.
// Word reads are 4 or 8 bytes wide depending on the bit width of the image.
type Reader struct {
	data   []byte
	offset int
	bits   int
}

// NewReader creates a Reader over data for an image with the given word width in bits.
func NewReader(data []byte, bits int) *Reader {
	return &Reader{data: data, bits: bits}
}

func (r *Reader) Bits() int { return r.bits }

// Remaining returns the number of bytes remaining.
func (r *Reader) Remaining() int {
	if r.offset >= len(r.data) {
		return 0
	}
	return len(r.data) - r.offset
}

// Align aligns the read position to the given boundary.
func (r *Reader) Align(alignment int) {
	if alignment <= 1 {
		return
	}
	if mod := r.offset % alignment; mod != 0 {
		r.offset += alignment - mod
	}
}

func (r *Reader) ReadU8() (uint8, error) {
	if r.offset >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if r.offset+4 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if r.offset+8 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// ReadWord reads a pointer-sized unsigned value. Words are aligned to their own size first.
func (r *Reader) ReadWord() (uint64, error) {
	switch r.bits {
	case 32:
		r.Align(4)
		v, err := r.ReadU32()
		return uint64(v), err
	case 64:
		r.Align(8)
		return r.ReadU64()
	default:
		return 0, ErrWordSize
	}
}

// ReadWords reads count pointer-sized values. A count larger than the remaining data is
// rejected before anything is allocated.
func (r *Reader) ReadWords(count int) ([]uint64, error) {
	if r.bits != 32 && r.bits != 64 {
		return nil, ErrWordSize
	}
	if count < 0 || count > r.Remaining()/(r.bits/8) {
		return nil, ErrUnexpectedEOF
	}
	words := make([]uint64, count)
	for i := range words {
		w, err := r.ReadWord()
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// ReadCString reads a null-terminated string.
func (r *Reader) ReadCString() (string, error) {
	start := r.offset
	for r.offset < len(r.data) {
		if r.data[r.offset] == 0 {
			s := string(r.data[start:r.offset])
			r.offset++
			return s, nil
		}
		r.offset++
	}
	return "", ErrUnexpectedEOF
}
