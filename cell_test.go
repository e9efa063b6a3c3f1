package datrie

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDoubleArrayExtendTo(t *testing.T) {
	d := newDoubleArray()
	if !d.extendTo(10) {
		t.Fatal("extendTo(10) = false")
	}
	if d.length() <= 10 {
		t.Fatalf("length() = %d, want > 10", d.length())
	}
	if d.getCheck(rootIndex) != 0 {
		t.Fatalf("root check corrupted by extendTo: %d", d.getCheck(rootIndex))
	}
}

func TestDoubleArrayFreeListConsumedInOrder(t *testing.T) {
	d := newDoubleArray()
	d.extendTo(6)

	base := d.findFreeBase([]Code{0})
	if base != beginIndex {
		t.Fatalf("findFreeBase returned %d, want %d (head of the free list)", base, beginIndex)
	}
	if d.getCheck(base) >= 0 {
		t.Fatalf("candidate cell %d already occupied before prepareCell", base)
	}
	d.prepareCell(base)
	d.setCheck(base, rootIndex)
	if got := d.freeListHead(); got != beginIndex+1 {
		t.Fatalf("free list head after prepareCell = %d, want %d", got, beginIndex+1)
	}

	if d.getCheck(base) != rootIndex {
		t.Fatalf("getCheck(base) = %d, want rootIndex", d.getCheck(base))
	}
}

func TestDoubleArrayInsertAndWalk(t *testing.T) {
	d := newDoubleArray()
	var a AlphaRange
	a.AddRange('a', 'z')

	s1 := d.insertState(rootIndex, &a, 'a')
	if _, ok := d.walk(rootIndex, a.GetCode('a')); !ok {
		t.Fatal("walk(root, code('a')) failed after insertState")
	}

	s2 := d.insertState(s1, &a, 'b')
	got, ok := d.walk(s1, a.GetCode('b'))
	if !ok || got != s2 {
		t.Fatalf("walk(s1, code('b')) = (%d, %v), want (%d, true)", got, ok, s2)
	}
}

func TestDoubleArrayRelocateOnCollision(t *testing.T) {
	d := newDoubleArray()
	var a AlphaRange
	a.AddRange('a', 'z')

	s := rootIndex
	// Root's 'a' child gets a child of its own in the cell that root's
	// 'b' transition would use at root's initial base, so inserting 'b'
	// collides and forces root's base to relocate.
	first := d.insertState(s, &a, 'a')
	oldBase := d.getBase(s)
	if grand := d.insertState(first, &a, 'a'); grand != oldBase+a.GetCode('b') {
		t.Fatalf("grandchild at %d, want %d (root's slot for 'b')", grand, oldBase+a.GetCode('b'))
	}

	children := make(map[byte]Code)
	for c := byte('b'); c <= 'z'; c++ {
		children[c] = d.insertState(s, &a, Sym(c))
	}
	if d.getBase(s) == oldBase {
		t.Fatalf("root base still %d after collision, want relocation", oldBase)
	}
	for c, state := range children {
		got, ok := d.walk(s, a.GetCode(Sym(c)))
		if !ok || got != state {
			t.Fatalf("walk(root, code(%q)) = (%d, %v), want (%d, true)", c, got, ok, state)
		}
	}
	moved, ok := d.walk(s, a.GetCode('a'))
	if !ok {
		t.Fatal("walk(root, code('a')) failed after relocation")
	}
	if _, ok := d.walk(moved, a.GetCode('a')); !ok {
		t.Fatal("grandchild of 'a' unreachable after relocation")
	}
}

func TestDoubleArrayRoundTrip(t *testing.T) {
	d := newDoubleArray()
	var a AlphaRange
	a.AddRange('a', 'z')
	d.insertState(rootIndex, &a, 'x')
	d.insertState(rootIndex, &a, 'y')

	var buf bytes.Buffer
	if _, err := d.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}

	var loaded doubleArray
	if _, err := loaded.readFrom(&buf); err != nil {
		t.Fatalf("readFrom: %v", err)
	}
	if len(loaded.cells) != len(d.cells) {
		t.Fatalf("loaded %d cells, want %d", len(loaded.cells), len(d.cells))
	}
	for i := range d.cells {
		if loaded.cells[i] != d.cells[i] {
			t.Fatalf("cell %d = %+v, want %+v", i, loaded.cells[i], d.cells[i])
		}
	}
}

func TestDoubleArrayWriteToCanonicalTailBase(t *testing.T) {
	d := newDoubleArray()
	d.extendTo(beginIndex + 1)
	cellIdx := beginIndex
	d.prepareCell(cellIdx)
	d.setCheck(cellIdx, rootIndex)
	d.setBase(cellIdx, encodeTail(0))

	var buf bytes.Buffer
	if _, err := d.writeTo(&buf); err != nil {
		t.Fatalf("writeTo: %v", err)
	}

	raw := buf.Bytes()
	off := int(cellIdx) * 8
	wireBase := int32(binary.LittleEndian.Uint32(raw[off : off+4]))
	if wireBase != 0 {
		t.Fatalf("wire base for tail index 0 = %d, want 0 (canonical -idx, not the internal -(idx+1))", wireBase)
	}

	var loaded doubleArray
	if _, err := loaded.readFrom(bytes.NewReader(raw)); err != nil {
		t.Fatalf("readFrom: %v", err)
	}
	if got := loaded.getBase(cellIdx); got != encodeTail(0) {
		t.Fatalf("round-tripped base = %d, want %d (internal -(idx+1) form restored)", got, encodeTail(0))
	}
}

func TestDoubleArrayReadFromRejectsBadSignature(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 16))

	var d doubleArray
	if _, err := d.readFrom(&buf); err != ErrBadSignature {
		t.Fatalf("readFrom with corrupt header = %v, want ErrBadSignature", err)
	}
}
