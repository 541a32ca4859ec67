// codec.go implements hex and base64 codecs that operate in bounded-size
// chunks to avoid unbounded intermediate allocations when encoding or
// decoding large ciphertexts, per §4.1.
package primitives

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/filecore/transfer-core/internal/xerrors"
)

// codecChunkSize is the maximum number of source bytes processed per
// encode/decode step. Chosen to keep transient allocations well under a
// single chunk's worth of ciphertext.
const codecChunkSize = 256 * 1024

// HexEncode encodes bytes to a lowercase hex string.
func HexEncode(b []byte) string {
	var sb strings.Builder
	sb.Grow(hex.EncodedLen(len(b)))
	for off := 0; off < len(b); off += codecChunkSize {
		end := off + codecChunkSize
		if end > len(b) {
			end = len(b)
		}
		sb.WriteString(hex.EncodeToString(b[off:end]))
	}
	return sb.String()
}

// HexDecode decodes a hex string to bytes, returning MalformedEncoding on
// invalid input.
func HexDecode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/2)
	for off := 0; off < len(s); off += codecChunkSize {
		end := off + codecChunkSize
		if end > len(s) {
			end = len(s)
		}
		// hex chunks must fall on even boundaries to decode independently.
		if end%2 != 0 && end != len(s) {
			end--
		}
		decoded, err := hex.DecodeString(s[off:end])
		if err != nil {
			return nil, xerrors.New("codec.hex", xerrors.ErrMalformedEncoding, err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Base64Encode encodes bytes to standard base64 (used for AEAD nonces).
func Base64Encode(b []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(b)))
	for off := 0; off < len(b); {
		end := off + codecChunkSize
		if end > len(b) {
			end = len(b)
		}
		// base64 chunks must be multiples of 3 bytes to avoid padding
		// appearing mid-stream.
		if rem := (end - off) % 3; rem != 0 && end != len(b) {
			end -= rem
		}
		sb.WriteString(base64.StdEncoding.EncodeToString(b[off:end]))
		off = end
	}
	return sb.String()
}

// Base64Decode decodes a standard base64 string to bytes, returning
// MalformedEncoding on invalid input. Unlike the other codecs it decodes
// the whole string in a single pass rather than in bounded chunks.
func Base64Decode(s string) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, xerrors.New("codec.base64", xerrors.ErrMalformedEncoding, err)
	}
	return out, nil
}
