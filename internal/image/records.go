package image

import (
	"fmt"
	"typerecon/internal/stream"

	"github.com/microsoft/go-winmd/flags"
)

// Record is implemented by pointers to runtime structures that can be decoded from an image.
type Record[T any] interface {
	*T
	Decode(r *stream.Reader) error
}

// ReadMappedObject decodes the runtime structure mapped at the given virtual address.
func ReadMappedObject[T any, PT Record[T]](img Image, va uint64) (T, error) {
	var v T
	r, err := img.Reader(va)
	if err != nil {
		return v, err
	}
	if err := PT(&v).Decode(r); err != nil {
		return v, fmt.Errorf("decoding %T at 0x%x: %w", v, va, err)
	}
	return v, nil
}

// ReadMappedWordArray reads count pointer-sized values starting at the given virtual address.
func ReadMappedWordArray(img Image, va uint64, count int) ([]uint64, error) {
	r, err := img.Reader(va)
	if err != nil {
		return nil, err
	}
	words, err := r.ReadWords(count)
	if err != nil {
		return nil, fmt.Errorf("reading %d words at 0x%x: %w", count, va, err)
	}
	return words, nil
}

// TypeRecord is the runtime type descriptor referenced by every type usage.
// Datapoint meaning depends on Type: a definition index for classes and value types,
// a generic parameter index for VAR/MVAR, or the address of a nested descriptor.
type TypeRecord struct {
	Datapoint uint64
	Attrs     uint16
	Type      flags.ElementType
	NumMods   uint8
	ByRef     bool
	Pinned    bool
}

func (t *TypeRecord) Decode(r *stream.Reader) error {
	datapoint, err := r.ReadWord()
	if err != nil {
		return err
	}
	bits, err := r.ReadU32()
	if err != nil {
		return err
	}
	t.Datapoint = datapoint
	t.Attrs = uint16(bits & 0xffff)
	t.Type = flags.ElementType((bits >> 16) & 0xff)
	t.NumMods = uint8((bits >> 24) & 0x3f)
	t.ByRef = (bits>>30)&1 == 1
	t.Pinned = (bits>>31)&1 == 1
	return nil
}

func (t TypeRecord) Write(w *Writer) uint64 {
	w.Align(w.Bits() / 8)
	va := w.Pos()
	bits := uint32(t.Attrs) | uint32(t.Type)<<16 | uint32(t.NumMods&0x3f)<<24
	if t.ByRef {
		bits |= 1 << 30
	}
	if t.Pinned {
		bits |= 1 << 31
	}
	w.Word(t.Datapoint)
	w.U32(bits)
	w.Align(w.Bits() / 8)
	return va
}

// GenericClass describes a closed instantiation of a generic type definition.
type GenericClass struct {
	TypeDefinitionIndex uint64
	ClassInst           uint64
	MethodInst          uint64
	CachedClass         uint64
}

func (g *GenericClass) Decode(r *stream.Reader) error {
	words, err := r.ReadWords(4)
	if err != nil {
		return err
	}
	g.TypeDefinitionIndex, g.ClassInst, g.MethodInst, g.CachedClass = words[0], words[1], words[2], words[3]
	return nil
}

func (g GenericClass) Write(w *Writer) uint64 {
	w.Align(w.Bits() / 8)
	va := w.Pos()
	w.Word(g.TypeDefinitionIndex)
	w.Word(g.ClassInst)
	w.Word(g.MethodInst)
	w.Word(g.CachedClass)
	return va
}

// GenericInst is a list of type argument records.
type GenericInst struct {
	TypeArgc uint64
	TypeArgv uint64
}

func (g *GenericInst) Decode(r *stream.Reader) error {
	words, err := r.ReadWords(2)
	if err != nil {
		return err
	}
	g.TypeArgc, g.TypeArgv = words[0], words[1]
	return nil
}

func (g GenericInst) Write(w *Writer) uint64 {
	w.Align(w.Bits() / 8)
	va := w.Pos()
	w.Word(g.TypeArgc)
	w.Word(g.TypeArgv)
	return va
}

// ArrayType describes an array with a known rank.
type ArrayType struct {
	ElementType uint64
	Rank        uint8
	NumSizes    uint8
	NumLoBounds uint8
	Sizes       uint64
	LoBounds    uint64
}

func (a *ArrayType) Decode(r *stream.Reader) error {
	etype, err := r.ReadWord()
	if err != nil {
		return err
	}
	var counts [3]uint8
	for i := range counts {
		if counts[i], err = r.ReadU8(); err != nil {
			return err
		}
	}
	sizes, err := r.ReadWord()
	if err != nil {
		return err
	}
	loBounds, err := r.ReadWord()
	if err != nil {
		return err
	}
	*a = ArrayType{
		ElementType: etype,
		Rank:        counts[0],
		NumSizes:    counts[1],
		NumLoBounds: counts[2],
		Sizes:       sizes,
		LoBounds:    loBounds,
	}
	return nil
}

func (a ArrayType) Write(w *Writer) uint64 {
	w.Align(w.Bits() / 8)
	va := w.Pos()
	w.Word(a.ElementType)
	w.U8(a.Rank)
	w.U8(a.NumSizes)
	w.U8(a.NumLoBounds)
	w.Word(a.Sizes)
	w.Word(a.LoBounds)
	return va
}

// WriteWordArray writes a list of pointer-sized values and returns its address.
func WriteWordArray(w *Writer, words []uint64) uint64 {
	w.Align(w.Bits() / 8)
	va := w.Pos()
	for _, word := range words {
		w.Word(word)
	}
	return va
}
