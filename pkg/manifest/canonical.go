package manifest

import (
	"encoding/binary"
)

// Canonical produces the deterministic byte serialization that the
// manifest's dual signature covers (§3: "the signature covers a
// deterministic byte serialization of all of the above"). Every variable-
// length component is length-prefixed so no ambiguity exists between
// adjacent fields, following this codebase's transcript-hashing
// convention for binding structured data before signing or hashing it.
func Canonical(m Manifest) []byte {
	var buf []byte

	writeUint16 := func(v uint16) {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}
	writeUint64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}
	writeBytes := func(b []byte) {
		writeUint64(uint64(len(b)))
		buf = append(buf, b...)
	}
	writeString := func(s string) {
		writeBytes([]byte(s))
	}

	writeUint16(m.Version)
	writeString(m.FileID)
	writeBytes(m.CiphertextFilename)
	writeBytes(m.FilenameSalt)
	writeString(m.MimeType)
	writeUint64(uint64(m.TotalSize))
	writeString(m.WholeFileHash)
	buf = append(buf, byte(m.WholeFileHashAlgo))
	writeString(m.AlgorithmVersion)
	writeUint64(uint64(m.CreatedAt.UnixNano()))

	writeUint64(uint64(len(m.Chunks)))
	for _, c := range m.Chunks {
		writeUint64(uint64(c.Index))
		writeUint64(uint64(c.PlaintextSize))
		writeUint64(uint64(c.CiphertextSize))
		writeBytes(c.Nonce)
		writeBytes(c.ContentHash)
		if c.Compression != nil {
			buf = append(buf, 1, byte(c.Compression.Algorithm))
			writeUint64(uint64(c.Compression.OriginalSize))
			writeUint64(uint64(c.Compression.CompressedSize))
		} else {
			buf = append(buf, 0)
		}
	}

	return buf
}
