package datrie

import (
	"io"
	"os"
)

// Trie is a tail-compressed double-array trie mapping symbol
// sequences to values of type T. The zero value is not usable; build
// one with New.
type Trie[T any] struct {
	alphabet AlphaRange
	array    doubleArray
	tails    tailPool[T]
	codec    Codec[T]
}

// New returns an empty trie with no admitted symbols. Call
// AddCodeRange before the first Store to make any keys insertable.
func New[T any](codec Codec[T]) *Trie[T] {
	return &Trie[T]{array: newDoubleArray(), codec: codec}
}

// AddCodeRange admits every symbol in [begin, end] to the trie's
// alphabet. It returns false if begin > end, or if the trie already
// holds stored keys and begin lies below the begin of the highest
// admitted range (see AlphaRange.AddRange), which keeps every code
// already baked into the array unchanged.
func (t *Trie[T]) AddCodeRange(begin, end Sym) bool {
	return t.alphabet.AddRange(begin, end)
}

// Rate reports the fraction of the underlying cell array currently
// occupied, as a coarse density diagnostic.
func (t *Trie[T]) Rate() float64 { return t.array.rate() }

func appendTerm(key []Sym) []Sym {
	out := make([]Sym, len(key)+1)
	copy(out, key)
	out[len(key)] = Term
	return out
}

func symsFromString(s string) []Sym {
	out := make([]Sym, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = Sym(s[i])
	}
	return out
}

func equalSyms(a, b []Sym) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stripTerm drops a trailing Term, if present. Every suffix passed in
// here is either empty or ends in Term, since it is taken from a full
// key that had exactly one Term appended; tailBlock.suffix itself
// never stores that trailing Term (see tail.go).
func stripTerm(s []Sym) []Sym {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}

// encodeTail and decodeTail pack a tail-pool index into a cell's base
// field as a negative number, distinct from 0 (an untouched leaf with
// no children and no tail) and from any positive base (a trunk state
// with children).
func encodeTail(idx Code) Code {
	return -(idx + 1)
}

func decodeTail(base Code) Code {
	return -base - 1
}

func (t *Trie[T]) admits(key []Sym) bool {
	for _, sym := range key {
		if sym == Term || t.alphabet.GetCode(sym) == CodeMax {
			return false
		}
	}
	return true
}

// Store inserts key with the given value and returns true, or returns
// false without modifying the trie if key is already present, or
// contains a symbol outside the admitted alphabet, or contains the
// Term sentinel. Re-storing an existing key never overwrites its
// value.
func (t *Trie[T]) Store(key []Sym, value T) bool {
	if !t.admits(key) {
		return false
	}
	return t.store(appendTerm(key), value)
}

// StoreString is Store over a string's raw bytes.
func (t *Trie[T]) StoreString(key string, value T) bool {
	return t.Store(symsFromString(key), value)
}

func (t *Trie[T]) store(full []Sym, value T) bool {
	s := rootIndex
	i := 0
	for t.array.getBase(s) >= 0 {
		if i == len(full) {
			return false
		}
		next, ok := t.array.walk(s, t.alphabet.GetCode(full[i]))
		if !ok {
			return t.insertBranch(s, full[i:], value)
		}
		s = next
		i++
	}
	return t.splitTail(s, full[i:], value)
}

// insertBranch creates one new trunk transition out of s on rest[0]
// and attaches the remainder of rest, with its trailing Term removed,
// as a fresh tail record.
func (t *Trie[T]) insertBranch(s Code, rest []Sym, value T) bool {
	next := t.array.insertState(s, &t.alphabet, rest[0])
	idx := t.tails.push(value, stripTerm(append([]Sym(nil), rest[1:]...)))
	t.array.setBase(next, encodeTail(idx))
	t.alphabet.Seal()
	return true
}

// splitTail handles storing a key that diverges from an existing tail
// record partway through. It walks the shared prefix of rest and the
// existing suffix into new trunk states, then reattaches the old
// tail's remainder and the new key's remainder as sibling leaves. The
// comparison is done with a synthetic trailing Term reattached to the
// stored suffix, since rest (built from the key being stored) still
// carries its own Term and tailBlock.suffix does not.
func (t *Trie[T]) splitTail(s Code, rest []Sym, value T) bool {
	idx := decodeTail(t.array.getBase(s))
	block, ok := t.tails.get(idx)
	if !ok {
		return false
	}
	oldSuffix := append(append([]Sym(nil), block.suffix...), Term)

	n := 0
	for n < len(rest) && n < len(oldSuffix) && rest[n] == oldSuffix[n] {
		n++
	}
	if n == len(rest) && n == len(oldSuffix) {
		return false
	}

	cur := s
	for k := 0; k < n; k++ {
		cur = t.array.insertState(cur, &t.alphabet, rest[k])
	}

	oldNext := t.array.insertState(cur, &t.alphabet, oldSuffix[n])
	t.tails.replaceSuffix(idx, stripTerm(append([]Sym(nil), oldSuffix[n+1:]...)))
	t.array.setBase(oldNext, encodeTail(idx))

	newNext := t.array.insertState(cur, &t.alphabet, rest[n])
	newIdx := t.tails.push(value, stripTerm(append([]Sym(nil), rest[n+1:]...)))
	t.array.setBase(newNext, encodeTail(newIdx))

	t.alphabet.Seal()
	return true
}

// Retrieve looks up key and returns its value and true, or the zero
// value and false if key was never stored.
func (t *Trie[T]) Retrieve(key []Sym) (T, bool) {
	var zero T
	if !t.admits(key) {
		return zero, false
	}
	full := appendTerm(key)

	s := rootIndex
	i := 0
	for {
		base := t.array.getBase(s)
		if base < 0 {
			block, ok := t.tails.get(decodeTail(base))
			if !ok {
				return zero, false
			}
			if !equalSyms(block.suffix, stripTerm(full[i:])) {
				return zero, false
			}
			return block.data, true
		}
		if i == len(full) {
			return zero, false
		}
		next, ok := t.array.walk(s, t.alphabet.GetCode(full[i]))
		if !ok {
			return zero, false
		}
		s = next
		i++
	}
}

// RetrieveString is Retrieve over a string's raw bytes.
func (t *Trie[T]) RetrieveString(key string) (T, bool) {
	return t.Retrieve(symsFromString(key))
}

// Remove is not implemented: deleting a key from a tail-compressed
// double array requires either re-threading sibling tail records or
// leaving tombstones that complicate Rate and the free list, and
// nothing in this package's call paths needs it yet. It always
// returns false.
func (t *Trie[T]) Remove(key []Sym) bool { return false }

// WriteTo serializes the trie as the alphabet block, the cell array
// block, and the tail pool block, in that order.
func (t *Trie[T]) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := t.alphabet.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.array.writeTo(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.tails.writeTo(w, t.codec)
	total += n
	return total, err
}

// ReadFrom replaces the trie's contents with the blocks produced by
// WriteTo. The trie's codec must match the one used to write the
// stream; ReadFrom has no way to verify this and will produce garbage
// payloads if it doesn't.
func (t *Trie[T]) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	n, err := t.alphabet.ReadFrom(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.array.readFrom(r)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.tails.readFrom(r, t.codec)
	total += n
	if err != nil {
		return total, err
	}
	t.alphabet.Seal()
	return total, nil
}

// Save writes the trie to path, creating or truncating it.
func (t *Trie[T]) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, werr := t.WriteTo(f)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// Load replaces the trie's contents with the file at path.
func (t *Trie[T]) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = t.ReadFrom(f)
	return err
}
