package datrie

import "errors"

// Sentinel errors returned from the serialization boundary (Save/Load,
// WriteTo/ReadFrom). Store/Retrieve/Remove report failure as a plain
// bool per spec: no exceptional control flow on the hot insert/lookup
// path, matching the source this package is ported from.
var (
	// ErrBadSignature is returned when a loaded cell array or tail block
	// does not begin with the expected 0xDEADBEAF marker.
	ErrBadSignature = errors.New("datrie: bad signature")

	// ErrEmptyTail is returned when a loaded trie claims zero tail
	// records; a trie with at least one stored key always has one.
	ErrEmptyTail = errors.New("datrie: tail count is zero")

	// ErrShortRead is returned when a size field in the stream cannot
	// describe a complete block: an alphabet total_size below 4 or not a
	// multiple of 4, or a cell count below the three reserved cells. A
	// stream that ends early returns the error from io.ReadFull instead.
	ErrShortRead = errors.New("datrie: short read")
)
