package value

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a deterministic 64-bit content hash of v. Map hashing
// enumerates entries in sorted-key order so the result does not depend on
// map iteration order. Hash collisions never affect correctness elsewhere
// in semdiff: the array differ (internal/diff) only ever uses Hash as a
// fast-path lookup key, falling back to Equal for the actual decision.
func Hash(v Value) uint64 {
	h := xxhash.New()
	writeValue(h, v)
	return h.Sum64()
}

// writeValue feeds a framed, collision-resistant encoding of v into h.
// Every variant is preceded by its Kind tag and, for variable-length
// payloads, a length prefix, so that e.g. the two-element array
// [String("a"), String("b")] cannot hash identically to the single-element
// array [String("ab")].
func writeValue(h *xxhash.Digest, v Value) {
	var lenBuf [8]byte
	writeLen := func(n int) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(n))
		h.Write(lenBuf[:])
	}

	h.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KindNull:
		// no payload
	case KindBool:
		if v.b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KindNumeric:
		writeLen(len(v.num))
		h.Write([]byte(v.num))
	case KindString:
		writeLen(len(v.str))
		h.Write([]byte(v.str))
	case KindArray:
		writeLen(len(v.arr))
		for _, el := range v.arr {
			writeValue(h, el)
		}
	case KindMap:
		keys := v.SortedKeys()
		writeLen(len(keys))
		for _, k := range keys {
			writeLen(len(k))
			h.Write([]byte(k))
			writeValue(h, v.m[k])
		}
	}
}
