package datrie

import "encoding/binary"

// Codec defines how a Trie[T] packs its payload type to and from
// bytes for Save/Load. The reference implementation leaves T's wire
// representation to "whatever the host language's template
// instantiation naturally produces"; Codec makes that choice explicit
// instead of reaching for reflection-based encoding.
//
// Size must report the same length for every value the codec will
// ever be asked to Encode, since the tail-record format stores no
// per-record length for the payload itself (only for the suffix that
// follows it). Variable-length payloads must self-delimit within that
// fixed budget, as StringCodec and BytesCodec do below.
type Codec[T any] interface {
	// Size returns the number of bytes Encode writes for v.
	Size(v T) int
	// Encode writes v to dst, which is exactly Size(v) bytes long.
	Encode(dst []byte, v T)
	// Decode reads a value back out of src, which is exactly the
	// number of bytes Size reported when the value was encoded.
	Decode(src []byte) T
}

// Uint32Codec encodes uint32 as 4 little-endian bytes.
type Uint32Codec struct{}

func (Uint32Codec) Size(uint32) int { return 4 }

func (Uint32Codec) Encode(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }

func (Uint32Codec) Decode(src []byte) uint32 { return binary.LittleEndian.Uint32(src) }

// Uint64Codec encodes uint64 as 8 little-endian bytes.
type Uint64Codec struct{}

func (Uint64Codec) Size(uint64) int { return 8 }

func (Uint64Codec) Encode(dst []byte, v uint64) { binary.LittleEndian.PutUint64(dst, v) }

func (Uint64Codec) Decode(src []byte) uint64 { return binary.LittleEndian.Uint64(src) }

// Int32Codec encodes int32 as 4 little-endian bytes, bit-reinterpreted
// through uint32.
type Int32Codec struct{}

func (Int32Codec) Size(int32) int { return 4 }

func (Int32Codec) Encode(dst []byte, v int32) { binary.LittleEndian.PutUint32(dst, uint32(v)) }

func (Int32Codec) Decode(src []byte) int32 { return int32(binary.LittleEndian.Uint32(src)) }

// maxPayload is the wire width reserved for the variable-length
// codecs below: a 2-byte length prefix followed by that many content
// bytes, zero-padded out to maxPayload. A trie built with one of these
// codecs cannot store a payload longer than maxPayload-2 bytes.
const maxPayload = 256

// StringCodec encodes a string as a 2-byte little-endian length
// followed by its bytes, zero-padded to a fixed width so Size does
// not depend on the value being decoded (see Codec's contract).
type StringCodec struct{}

func (StringCodec) Size(string) int { return maxPayload }

func (StringCodec) Encode(dst []byte, v string) {
	if len(v) > maxPayload-2 {
		v = v[:maxPayload-2]
	}
	binary.LittleEndian.PutUint16(dst[0:2], uint16(len(v)))
	n := copy(dst[2:], v)
	clear(dst[2+n:])
}

func (StringCodec) Decode(src []byte) string {
	n := binary.LittleEndian.Uint16(src[0:2])
	return string(src[2 : 2+int(n)])
}

// BytesCodec encodes a []byte the same way as StringCodec.
type BytesCodec struct{}

func (BytesCodec) Size([]byte) int { return maxPayload }

func (BytesCodec) Encode(dst []byte, v []byte) {
	if len(v) > maxPayload-2 {
		v = v[:maxPayload-2]
	}
	binary.LittleEndian.PutUint16(dst[0:2], uint16(len(v)))
	n := copy(dst[2:], v)
	clear(dst[2+n:])
}

func (BytesCodec) Decode(src []byte) []byte {
	n := binary.LittleEndian.Uint16(src[0:2])
	out := make([]byte, n)
	copy(out, src[2:2+int(n)])
	return out
}
