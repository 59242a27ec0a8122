// Package image describes the loaded application binary: virtual address mapping,
// typed reads of runtime records and the export table.
package image

import (
	"errors"
	"fmt"
	"typerecon/internal/stream"

	"golang.org/x/exp/slices"
)

var ErrUnmappedAddress = errors.New("image: virtual address is not mapped")

// Image is the view of a loaded binary needed to resolve runtime records.
type Image interface {
	// Bits is the pointer width of the binary (32 or 64).
	Bits() int
	// Version is the metadata version the binary was compiled against.
	Version() float64
	// Reader returns a reader positioned at the given virtual address.
	Reader(va uint64) (*stream.Reader, error)
	IsMapped(va uint64) bool
	Exports() []Export
}

type Export struct {
	Name           string
	VirtualAddress uint64
}

type Segment struct {
	VirtualAddress uint64
	Data           []byte
}

// Memory is an Image backed by in-memory segments.
type Memory struct {
	bits     int
	version  float64
	segments []Segment
	exports  []Export
}

func NewMemory(bits int, version float64) *Memory {
	return &Memory{bits: bits, version: version}
}

// AddSegment maps data at the given virtual address. Segments are kept sorted by address.
func (m *Memory) AddSegment(va uint64, data []byte) {
	m.segments = append(m.segments, Segment{VirtualAddress: va, Data: data})
	slices.SortStableFunc(m.segments, func(a, b Segment) bool {
		return a.VirtualAddress < b.VirtualAddress
	})
}

func (m *Memory) AddExport(name string, va uint64) {
	m.exports = append(m.exports, Export{Name: name, VirtualAddress: va})
}

func (m *Memory) Bits() int { return m.bits }

func (m *Memory) Version() float64 { return m.version }

func (m *Memory) Segments() []Segment { return m.segments }

func (m *Memory) Exports() []Export { return m.exports }

func (m *Memory) IsMapped(va uint64) bool {
	_, ok := m.segment(va)
	return ok
}

func (m *Memory) Reader(va uint64) (*stream.Reader, error) {
	seg, ok := m.segment(va)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnmappedAddress, va)
	}
	return stream.NewReader(seg.Data[va-seg.VirtualAddress:], m.bits), nil
}

func (m *Memory) segment(va uint64) (Segment, bool) {
	i, found := slices.BinarySearchFunc(m.segments, va, func(s Segment, target uint64) int {
		switch {
		case s.VirtualAddress+uint64(len(s.Data)) <= target:
			return -1
		case s.VirtualAddress > target:
			return 1
		}
		return 0
	})
	if !found {
		return Segment{}, false
	}
	return m.segments[i], true
}
