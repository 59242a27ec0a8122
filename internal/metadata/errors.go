package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two fatal input failure classes.
var (
	// ErrStructuralCorruption indicates the metadata and binary do not describe one consistent
	// program: an index or address does not resolve, or a record carries an unknown tag.
	ErrStructuralCorruption = errors.New("metadata: structural corruption")

	// ErrInputConsistency indicates a uniqueness requirement of the input was violated.
	ErrInputConsistency = errors.New("metadata: input consistency violation")

	// ErrUnknownTypeTag indicates a type usage record with an unrecognized element type.
	ErrUnknownTypeTag = fmt.Errorf("%w: unrecognized type usage tag", ErrStructuralCorruption)
)

// IndexError reports an index that lies outside of the table it refers to.
type IndexError struct {
	Table string
	Index int64
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("metadata: index %d out of range for %s (length %d)", e.Index, e.Table, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrStructuralCorruption }

// Corrupt marks err as structural corruption unless it already is.
func Corrupt(err error) error {
	if err == nil || errors.Is(err, ErrStructuralCorruption) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStructuralCorruption, err)
}
