package gametype

import (
	"errors"
	"fmt"
	"math/bits"
)

// Registry errors.
var (
	ErrUnknownType   = errors.New("gametype: unknown type")
	ErrDuplicateType = errors.New("gametype: duplicate type")
	ErrEmptyName     = errors.New("gametype: empty type name")
)

// Registry is an immutable bidirectional mapping between type names and
// compact integer codes. Code 0 is always the empty name (no type).
type Registry struct {
	names []string
	codes map[string]uint32
	bits  int
}

// NewRegistry builds a registry from an ordered list of names. Codes are
// assigned by position starting at 1; the list must not contain the empty
// name or duplicates.
func NewRegistry(names []string) (*Registry, error) {
	r := &Registry{
		names: make([]string, 0, len(names)+1),
		codes: make(map[string]uint32, len(names)+1),
	}
	r.names = append(r.names, "")
	r.codes[""] = 0

	for _, name := range names {
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := r.codes[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateType, name)
		}
		r.codes[name] = uint32(len(r.names))
		r.names = append(r.names, name)
	}

	r.bits = bitsFor(len(r.names))
	return r, nil
}

// bitsFor returns ceil(log2(n)), the width needed to hold codes 0..n-1.
func bitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Encode returns the code for name.
func (r *Registry) Encode(name string) (uint32, error) {
	code, ok := r.codes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return code, nil
}

// Decode returns the name for code.
func (r *Registry) Decode(code uint32) (string, error) {
	if uint64(code) >= uint64(len(r.names)) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownType, code)
	}
	return r.names[code], nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.codes[name]
	return ok
}

// Bits returns the wire width of a code.
func (r *Registry) Bits() int {
	return r.bits
}

// Len returns the number of codes, including the empty name.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns the names in code order. The returned slice is a copy.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
