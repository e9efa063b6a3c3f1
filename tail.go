package datrie

import (
	"encoding/binary"
	"io"
)

// tailBlock is one entry of a tailPool: a stored payload plus the
// symbols remaining after the trunk transition that led here. suffix
// never includes the trailing Term every key conceptually ends with;
// an empty suffix is the correctly-intended representation of "the
// key ended exactly at that transition", not an unused case.
type tailBlock[T any] struct {
	data   T
	suffix []Sym
}

// tailPool is the append-only store of tail records referenced by
// negative base values in the trie's double array. A split mutates an
// existing entry's suffix in place but never reorders entries, so
// trunk pointers into the pool stay valid across splits.
type tailPool[T any] struct {
	blocks []tailBlock[T]
}

// push appends a new tail record and returns its index.
func (p *tailPool[T]) push(data T, suffix []Sym) Code {
	p.blocks = append(p.blocks, tailBlock[T]{data: data, suffix: suffix})
	return Code(len(p.blocks) - 1)
}

// get returns the tail block at index i and whether i is in range.
func (p *tailPool[T]) get(i Code) (*tailBlock[T], bool) {
	if i < 0 || int(i) >= len(p.blocks) {
		return nil, false
	}
	return &p.blocks[i], true
}

// replaceSuffix overwrites the suffix of an existing tail record in
// place, used when a split pushes the shared prefix character back
// into the trunk and leaves the remainder in the same tail slot.
func (p *tailPool[T]) replaceSuffix(i Code, suffix []Sym) {
	p.blocks[i].suffix = suffix
}

// writeTo serializes the tail signature cell (SIGNATURE, count)
// followed by count records of (codec-encoded T, len int32, len Syms),
// where len counts suffix symbols only and never includes a Term.
func (p *tailPool[T]) writeTo(w io.Writer, codec Codec[T]) (int64, error) {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(signature))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(p.blocks)))
	n, err := w.Write(hdr[:])
	total := int64(n)
	if err != nil {
		return total, err
	}

	for _, b := range p.blocks {
		size := codec.Size(b.data)
		buf := make([]byte, size)
		codec.Encode(buf, b.data)
		if n, err = w.Write(buf); err != nil {
			return total + int64(n), err
		}
		total += int64(n)

		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b.suffix)))
		if n, err = w.Write(lenBuf[:]); err != nil {
			return total + int64(n), err
		}
		total += int64(n)

		if len(b.suffix) > 0 {
			symBuf := make([]byte, 2*len(b.suffix))
			for i, s := range b.suffix {
				binary.LittleEndian.PutUint16(symBuf[i*2:i*2+2], s)
			}
			if n, err = w.Write(symBuf); err != nil {
				return total + int64(n), err
			}
			total += int64(n)
		}
	}
	return total, nil
}

// readFrom deserializes a tail pool written by writeTo. It rejects the
// stream if the signature is wrong or the declared record count is
// zero, per the §6.2 load contract.
func (p *tailPool[T]) readFrom(r io.Reader, codec Codec[T]) (int64, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	base := Code(binary.LittleEndian.Uint32(hdr[0:4]))
	count := binary.LittleEndian.Uint32(hdr[4:8])
	if base != signature {
		return 8, ErrBadSignature
	}
	if count == 0 {
		return 8, ErrEmptyTail
	}

	total := int64(8)
	blocks := make([]tailBlock[T], count)
	for i := range blocks {
		payload, n, err := readPayload(r, codec)
		total += n
		if err != nil {
			return total, err
		}
		blocks[i].data = payload

		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return total, err
		}
		total += 4
		symCount := binary.LittleEndian.Uint32(lenBuf[:])
		if symCount == 0 {
			continue
		}
		symBuf := make([]byte, 2*symCount)
		if _, err := io.ReadFull(r, symBuf); err != nil {
			return total, err
		}
		total += int64(len(symBuf))
		suffix := make([]Sym, symCount)
		for j := range suffix {
			suffix[j] = binary.LittleEndian.Uint16(symBuf[j*2 : j*2+2])
		}
		blocks[i].suffix = suffix
	}
	p.blocks = blocks
	return total, nil
}

// readPayload reads one codec-encoded T. Fixed-size codecs (Size
// independent of the value) are read directly into a correctly sized
// buffer; this relies on Codec implementations reporting a size that
// does not depend on the not-yet-decoded value for the read path to
// work at all, which is true of every built-in codec in this package.
func readPayload[T any](r io.Reader, codec Codec[T]) (T, int64, error) {
	var zero T
	size := codec.Size(zero)
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return zero, 0, err
	}
	return codec.Decode(buf), int64(size), nil
}
