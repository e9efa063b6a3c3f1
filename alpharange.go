package datrie

import (
	"encoding/binary"
	"io"
	"sort"
)

// Sym is a single symbol of a key string. The sentinel value 0 (Term)
// is never a legitimate user symbol inside a key; it is appended once
// to every key before storage and stripped when matching tails.
type Sym = uint16

// Code is the dense, positive code a Sym compresses to. Code 0 is
// reserved for Term. CodeMax is the sentinel returned for a symbol
// outside every registered range.
type Code = int32

// Term is the symbol terminator appended to every stored key.
const Term Sym = 0

// CodeMax is returned by AlphaRange.GetCode for a symbol admitted by
// no registered range.
const CodeMax Code = 0x7fffffff

// codeRange is one closed, inclusive interval of the 16-bit symbol
// domain. AlphaRange keeps these sorted, disjoint and non-adjacent:
// for consecutive ranges, prev.end+1 < next.begin.
type codeRange struct {
	begin Sym
	end   Sym
}

func (r codeRange) width() Code { return Code(r.end) - Code(r.begin) + 1 }

// AlphaRange maps an open set of admitted symbol-code ranges into a
// dense, contiguous code space starting at 1, so the compressed code
// can be used directly as a double-array branch offset.
type AlphaRange struct {
	ranges  []codeRange
	maxCode Code
	sealed  bool
}

// AddRange admits every symbol in [begin, end] (inclusive) to the
// alphabet. Ranges that touch or overlap an existing range are
// coalesced into it; ranges that land strictly between two existing
// ranges are inserted preserving sort order. A call with begin > end
// is silently rejected, matching the reference implementation.
//
// Once the AlphaRange has been sealed (see Seal), a call whose begin
// lies below the begin of the highest existing range is rejected and
// returns false, so no symbol admitted before sealing has its code
// reassigned. This also rejects such a range when it would leave every
// code unchanged (for example one lying wholly inside a lower range).
// Every other call with begin <= end returns true.
func (a *AlphaRange) AddRange(begin, end Sym) bool {
	if begin > end {
		return false
	}
	if a.sealed && len(a.ranges) > 0 && begin < a.ranges[len(a.ranges)-1].begin {
		return false
	}

	// Insert the new interval in sorted position, then absorb any
	// interval it touches or overlaps in a single forward pass. Since
	// the existing ranges are already sorted, disjoint and
	// non-adjacent, one pass after the insertion point suffices.
	all := append(a.ranges, codeRange{begin: begin, end: end})
	sort.Slice(all, func(i, j int) bool { return all[i].begin < all[j].begin })

	merged := all[:0:0]
	for _, r := range all {
		if n := len(merged); n > 0 && Code(merged[n-1].end)+1 >= Code(r.begin) {
			if r.end > merged[n-1].end {
				merged[n-1].end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}
	a.ranges = merged

	a.updateMaxCode()
	return true
}

// Seal marks the alphabet as having live, stored codes: further
// AddRange calls that would reassign an already-admitted symbol's
// code are rejected. Called automatically on the first successful
// Store.
func (a *AlphaRange) Seal() { a.sealed = true }

func (a *AlphaRange) updateMaxCode() {
	var code Code
	for _, r := range a.ranges {
		code += r.width()
	}
	a.maxCode = code
}

// GetCode returns the dense code for sym: 0 for Term, CodeMax if sym
// is admitted by no registered range, else 1+offset-within-alphabet.
func (a *AlphaRange) GetCode(sym Sym) Code {
	if sym == Term {
		return 0
	}
	code := Code(1)
	for _, r := range a.ranges {
		if r.begin <= sym && sym <= r.end {
			return code + Code(sym) - Code(r.begin)
		}
		code += r.width()
	}
	return CodeMax
}

// MaxCode returns the width of the admitted alphabet: the number of
// distinct non-terminator codes currently in use.
func (a *AlphaRange) MaxCode() Code { return a.maxCode }

// WriteTo serializes the range list per the on-disk format: a
// little-endian total_size (inclusive of itself) followed by packed
// (begin, end) Sym pairs.
func (a *AlphaRange) WriteTo(w io.Writer) (int64, error) {
	totalSize := uint32(4 + len(a.ranges)*4)
	buf := make([]byte, totalSize)
	binary.LittleEndian.PutUint32(buf[0:4], totalSize)
	off := 4
	for _, r := range a.ranges {
		binary.LittleEndian.PutUint16(buf[off:off+2], r.begin)
		binary.LittleEndian.PutUint16(buf[off+2:off+4], r.end)
		off += 4
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom deserializes a range list written by WriteTo. It reads
// total_size, derives the pair count, and re-admits each pair via
// AddRange, which re-asserts the disjoint/coalesced invariants even
// on adversarial input.
func (a *AlphaRange) ReadFrom(r io.Reader) (int64, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return 0, err
	}
	totalSize := binary.LittleEndian.Uint32(sizeBuf[:])
	if totalSize < 4 || (totalSize-4)%4 != 0 {
		return 4, ErrShortRead
	}
	rest := make([]byte, totalSize-4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 4, err
	}
	*a = AlphaRange{}
	pairCount := len(rest) / 4
	for i := 0; i < pairCount; i++ {
		off := i * 4
		begin := binary.LittleEndian.Uint16(rest[off : off+2])
		end := binary.LittleEndian.Uint16(rest[off+2 : off+4])
		a.AddRange(begin, end)
	}
	return int64(totalSize), nil
}
