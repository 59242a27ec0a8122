package metadata

import (
	"fmt"
	"io"
	"os"
	"typerecon/internal/image"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the serialized form of a Package, produced by an external extractor from a
// metadata file and a loaded binary.
type Snapshot struct {
	Metadata          Metadata        `msgpack:"metadata"`
	Registration      Registration    `msgpack:"registration"`
	HasMetadataUsages bool            `msgpack:"has_usages"`
	Bits              int             `msgpack:"bits"`
	ImageVersion      float64         `msgpack:"image_version"`
	Segments          []image.Segment `msgpack:"segments"`
	Exports           []image.Export  `msgpack:"exports"`
}

// NewSnapshot captures a package whose image is held in memory.
func NewSnapshot(pkg *Package, mem *image.Memory) *Snapshot {
	return &Snapshot{
		Metadata:          *pkg.Metadata,
		Registration:      *pkg.Registration,
		HasMetadataUsages: pkg.HasMetadataUsages(),
		Bits:              mem.Bits(),
		ImageVersion:      mem.Version(),
		Segments:          mem.Segments(),
		Exports:           mem.Exports(),
	}
}

// Package rebuilds the package described by the snapshot.
func (s *Snapshot) Package() *Package {
	mem := image.NewMemory(s.Bits, s.ImageVersion)
	for _, seg := range s.Segments {
		mem.AddSegment(seg.VirtualAddress, seg.Data)
	}
	for _, export := range s.Exports {
		mem.AddExport(export.Name, export.VirtualAddress)
	}

	metadata := s.Metadata
	registration := s.Registration
	if !s.HasMetadataUsages {
		registration.MetadataUsages = nil
	} else if registration.MetadataUsages == nil {
		registration.MetadataUsages = []MetadataUsage{}
	}

	return &Package{Metadata: &metadata, Registration: &registration, Image: mem}
}

func WriteSnapshot(w io.Writer, s *Snapshot) error {
	return msgpack.NewEncoder(w).Encode(s)
}

func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}

// LoadSnapshot reads a snapshot file and returns the package it describes.
func LoadSnapshot(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s.Package(), nil
}
