package image

import "encoding/binary"

// Writer lays out runtime records into a single segment starting at a base address.
// It is the inverse of stream.Reader and is used to build images from extracted tables.
type Writer struct {
	base uint64
	bits int
	data []byte
}

func NewWriter(base uint64, bits int) *Writer {
	return &Writer{base: base, bits: bits}
}

// Pos returns the virtual address of the next byte to be written.
func (w *Writer) Pos() uint64 { return w.base + uint64(len(w.data)) }

func (w *Writer) Bits() int { return w.bits }

func (w *Writer) Align(alignment int) {
	for len(w.data)%alignment != 0 {
		w.data = append(w.data, 0)
	}
}

func (w *Writer) U8(v uint8) { w.data = append(w.data, v) }

func (w *Writer) U32(v uint32) { w.data = binary.LittleEndian.AppendUint32(w.data, v) }

func (w *Writer) Word(v uint64) {
	if w.bits == 32 {
		w.Align(4)
		w.data = binary.LittleEndian.AppendUint32(w.data, uint32(v))
		return
	}
	w.Align(8)
	w.data = binary.LittleEndian.AppendUint64(w.data, v)
}

// Bytes appends raw data and returns its address.
func (w *Writer) Bytes(b []byte) uint64 {
	va := w.Pos()
	w.data = append(w.data, b...)
	return va
}

// Segment returns the written data as a mappable segment.
func (w *Writer) Segment() Segment {
	return Segment{VirtualAddress: w.base, Data: w.data}
}
