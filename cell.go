package datrie

import (
	"encoding/binary"
	"io"
)

// cell is one base/check pair. check >= 0 marks an occupied cell
// (check == s means this cell is a transition out of state s);
// check < 0 marks a free cell, with -base/-check threading the
// doubly-linked free list. A negative base on an occupied cell is a
// tail pointer, stored in memory as -(idx+1) so that 0 is left free to
// mean "no base assigned yet" (see encodeTail/decodeTail); on disk the
// offset is removed and -base is the tail index directly (see
// doubleArray.writeTo).
type cell struct {
	base  Code
	check Code
}

// Reserved state indices, matching the reference layout exactly so
// the on-disk format lines up byte-for-byte.
const (
	freeIndex  Code = 1
	rootIndex  Code = 2
	beginIndex Code = 3
)

// signature is the magic marker 0xDEADBEAF written to cell 0's base
// field. It is negative when stored in the signed base/check field,
// so it is derived at init time via an explicit uint32->int32
// reinterpretation rather than an overflowing int32 literal.
var signature = func() Code {
	var bits uint32 = 0xDEADBEAF
	return Code(int32(bits))
}()

// doubleArray is the base/check cell vector plus its embedded
// free-cell list. It has no notion of payloads or tails; Trie[T]
// layers those on top via negative base pointers.
type doubleArray struct {
	cells []cell
}

// newDoubleArray returns an array initialized to the reserved header,
// free-list sentinel and root cells, with no free cells beyond that
// (extendTo adds them on demand).
func newDoubleArray() doubleArray {
	d := doubleArray{cells: make([]cell, beginIndex)}
	d.cells[0] = cell{base: signature, check: beginIndex}
	d.cells[freeIndex] = cell{base: -1, check: -1}
	d.cells[rootIndex] = cell{base: beginIndex, check: 0}
	return d
}

func (d *doubleArray) length() Code { return Code(len(d.cells)) }

func (d *doubleArray) getBase(i Code) Code {
	if i < d.length() {
		return d.cells[i].base
	}
	return CodeMax
}

func (d *doubleArray) getCheck(i Code) Code {
	if i < d.length() {
		return d.cells[i].check
	}
	return CodeMax
}

func (d *doubleArray) setBase(i, v Code) {
	if i < d.length() {
		d.cells[i].base = v
	}
}

func (d *doubleArray) setCheck(i, v Code) {
	if i < d.length() {
		d.cells[i].check = v
	}
}

func (d *doubleArray) freeListHead() Code { return -d.getCheck(freeIndex) }
func (d *doubleArray) freeListTail() Code { return -d.getBase(freeIndex) }

// extendTo enlarges the cell vector so that target is a valid index,
// threading the new cells onto the tail of the free list. It fails
// only when target is non-positive.
func (d *doubleArray) extendTo(target Code) bool {
	if target <= 0 {
		return false
	}
	if target < d.length() {
		return true
	}
	newBegin := d.length()
	d.cells = append(d.cells, make([]cell, target+1-newBegin)...)

	for i := newBegin; i < target; i++ {
		d.setCheck(i, -(i + 1))
		d.setBase(i+1, -i)
	}

	freeTail := d.freeListTail()
	d.setCheck(freeTail, -newBegin)
	d.setBase(newBegin, -freeTail)
	d.setCheck(target, -freeIndex)
	d.setBase(freeIndex, -target)

	d.cells[0].check = d.length()
	return true
}

// walk attempts the transition out of s on code, returning the
// resulting state and whether it exists.
func (d *doubleArray) walk(s, code Code) (Code, bool) {
	t := d.getBase(s) + code
	if t < 0 || t >= d.length() {
		return 0, false
	}
	if d.getCheck(t) == s {
		return t, true
	}
	return 0, false
}

// childCodes returns, in ascending order, every code c for which
// base(s)+c is currently a child of s.
func (d *doubleArray) childCodes(s Code, maxCode Code) []Code {
	base := d.getBase(s)
	limit := maxCode
	if avail := d.length() - base; avail < limit {
		limit = avail
	}
	if limit < 0 {
		limit = 0
	}
	var codes []Code
	for c := Code(0); c <= limit; c++ {
		if d.getCheck(base+c) == s {
			codes = append(codes, c)
		}
	}
	return codes
}

// isValidBase reports whether every base+c for c in codes names a
// cell that is, after extension, currently free.
func (d *doubleArray) isValidBase(codes []Code, base Code) bool {
	for _, c := range codes {
		next := base + c
		if !d.extendTo(next) || d.getCheck(next) >= 0 {
			return false
		}
	}
	return true
}

// findFreeBase returns a base such that base+c is free for every c in
// the (non-empty, ascending) codes slice, extending the array as
// needed. codes[0] must be the smallest code in the set.
func (d *doubleArray) findFreeBase(codes []Code) Code {
	firstCode := codes[0]
	s := d.freeListHead()
	for s != freeIndex && s < beginIndex+firstCode {
		s = -d.getCheck(s)
	}
	if s == freeIndex {
		s = beginIndex + firstCode
		for {
			if !d.extendTo(s) {
				return 0
			}
			if d.getCheck(s) < 0 {
				break
			}
			s++
		}
	}

	for !d.isValidBase(codes, s-firstCode) {
		// Peek at the next free cell before committing to it: if it is
		// the FREE sentinel, the list is exhausted and must grow
		// before we can advance. Growing first (anchored past the
		// current end) relinks s's free-chain pointer away from FREE
		// and into the new cells, so re-reading it afterward makes
		// forward progress instead of looping back to the list head.
		next := -d.getCheck(s)
		if next == freeIndex {
			if !d.extendTo(d.length() + codes[len(codes)-1]) {
				return 0
			}
			next = -d.getCheck(s)
		}
		s = next
	}
	return s - firstCode
}

// prepareCell unlinks a currently-free cell from the free list so the
// caller can write an occupied value into it. No-op if the cell is
// already occupied.
func (d *doubleArray) prepareCell(i Code) {
	if d.getCheck(i) >= 0 {
		return
	}
	prevFree := -d.getBase(i)
	nextFree := -d.getCheck(i)
	d.setCheck(prevFree, -nextFree)
	d.setBase(nextFree, -prevFree)
}

// freeCell splices a vacated cell back into the free list in sorted
// order, searching forward from hint. It returns i, so callers that
// free cells in ascending order can pass the return value back in as
// the next hint for amortized O(1) frees.
func (d *doubleArray) freeCell(i, hint Code) Code {
	s := hint
	for {
		s = -d.getCheck(s)
		if s == freeIndex || s >= i {
			break
		}
	}
	prevFree := -d.getBase(s)
	d.setCheck(prevFree, -i)
	d.setBase(i, -prevFree)
	d.setCheck(i, -s)
	d.setBase(s, -i)
	return i
}

// insertState walks s on sym's code, inserting a fresh branch (and
// relocating s's base if necessary) when the transition does not yet
// exist, and returns the resulting state.
func (d *doubleArray) insertState(s Code, alphabet *AlphaRange, sym Sym) Code {
	code := alphabet.GetCode(sym)
	base := d.getBase(s)

	if base > 0 {
		next := base + code
		if base > CodeMax-code || !d.extendTo(next) || d.getCheck(next) >= 0 {
			return d.relocateAndInsert(s, alphabet.MaxCode(), code)
		}
		d.prepareCell(next)
		d.setCheck(next, s)
		return next
	}

	newBase := d.findFreeBase([]Code{code})
	d.setBase(s, newBase)
	next := newBase + code
	d.prepareCell(next)
	d.setCheck(next, s)
	return next
}

func (d *doubleArray) relocateAndInsert(s, maxCode, code Code) Code {
	codes := d.childCodes(s, maxCode)
	codes = insertSorted(codes, code)
	newBase := d.findFreeBase(codes)
	d.relocateBase(s, newBase, codes, code, maxCode)
	return newBase + code
}

func insertSorted(codes []Code, code Code) []Code {
	i := 0
	for i < len(codes) && codes[i] < code {
		i++
	}
	codes = append(codes, 0)
	copy(codes[i+1:], codes[i:])
	codes[i] = code
	return codes
}

// relocateBase moves every existing child of s from oldBase+c to
// newBase+c (for c in codes, excluding newCode), rewrites each moved
// child's own children's check back-pointers, frees the vacated
// cells, and installs a fresh cell at newBase+newCode.
func (d *doubleArray) relocateBase(s, newBase Code, codes []Code, newCode, maxCode Code) {
	lastFree := freeIndex
	oldBase := d.getBase(s)
	d.setBase(s, newBase)

	for _, c := range codes {
		if c == newCode {
			d.prepareCell(newBase + c)
			d.setCheck(newBase+c, s)
			continue
		}

		oldNext := oldBase + c
		newNext := newBase + c
		oldNextBase := d.getBase(oldNext)

		d.prepareCell(newNext)
		d.setBase(newNext, oldNextBase)
		d.setCheck(newNext, s)

		if oldNextBase > 0 {
			extent := maxCode
			if avail := d.length() - oldNextBase; avail > extent {
				extent = avail
			}
			for g := Code(0); g < extent; g++ {
				if d.getCheck(oldNextBase+g) == oldNext {
					d.setCheck(oldNextBase+g, newNext)
				}
			}
		}

		lastFree = d.freeCell(oldNext, lastFree)
	}
}

// rate returns the number of occupied cells at index >= beginIndex
// divided by the total cell count, as a coarse diagnostic of array
// density.
func (d *doubleArray) rate() float64 {
	if len(d.cells) == 0 {
		return 0
	}
	var used Code
	for i := int(beginIndex); i < len(d.cells); i++ {
		if d.cells[i].check > 0 {
			used++
		}
	}
	return float64(used) / float64(len(d.cells))
}

// writeTo serializes the header cell followed by the remaining
// N-1 cells as packed little-endian (base, check) int32 pairs. N is
// recovered on load from the header cell's check field.
//
// A tail pointer's base is held in memory as -(idx+1), reserving 0 to
// mean "no base assigned yet" on an otherwise-untouched cell (see
// encodeTail/decodeTail). On the wire that offset is removed: a tail
// cell's base is written as the canonical -idx, so an external reader
// following the on-disk format sees tail indices directly.
func (d *doubleArray) writeTo(w io.Writer) (int64, error) {
	buf := make([]byte, 8*len(d.cells))
	for i, c := range d.cells {
		base := c.base
		if i != 0 && c.check >= 0 && base < 0 {
			base++
		}
		binary.LittleEndian.PutUint32(buf[i*8:i*8+4], uint32(base))
		binary.LittleEndian.PutUint32(buf[i*8+4:i*8+8], uint32(c.check))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// readFrom deserializes a cell vector written by writeTo, rejecting
// the stream if the header signature doesn't match. Tail-pointer bases
// are converted back from the on-disk canonical -idx to the in-memory
// -(idx+1) form; see writeTo.
func (d *doubleArray) readFrom(r io.Reader) (int64, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	base := Code(binary.LittleEndian.Uint32(hdr[0:4]))
	check := Code(binary.LittleEndian.Uint32(hdr[4:8]))
	if base != signature {
		return 8, ErrBadSignature
	}
	count := check
	if count < beginIndex {
		return 8, ErrShortRead
	}

	cells := make([]cell, count)
	cells[0] = cell{base: base, check: check}

	rest := make([]byte, 8*(int(count)-1))
	if _, err := io.ReadFull(r, rest); err != nil {
		return 8, err
	}
	for i := 1; i < int(count); i++ {
		off := (i - 1) * 8
		cellBase := Code(binary.LittleEndian.Uint32(rest[off : off+4]))
		cellCheck := Code(binary.LittleEndian.Uint32(rest[off+4 : off+8]))
		if cellCheck >= 0 && cellBase <= 0 {
			cellBase--
		}
		cells[i].base = cellBase
		cells[i].check = cellCheck
	}
	d.cells = cells
	return int64(8 + len(rest)), nil
}
