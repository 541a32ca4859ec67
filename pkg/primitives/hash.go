// hash.go implements one-shot and incremental cryptographic hashing over
// SHA-256, SHA-512, and BLAKE3. The one-shot form is used for whole-file
// verification; the incremental form backs per-chunk streaming hashes.
package primitives

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/zeebo/blake3"

	"github.com/filecore/transfer-core/internal/constants"
)

// NewHasher returns a fresh incremental hash.Hash for the given algorithm.
func NewHasher(alg constants.HashAlgorithm) hash.Hash {
	switch alg {
	case constants.HashSHA512:
		return sha512.New()
	case constants.HashBLAKE3:
		return blake3.New()
	default:
		return sha256.New()
	}
}

// SumSHA256 computes the SHA-256 digest of data in one shot.
func SumSHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SumSHA512 computes the SHA-512 digest of data in one shot.
func SumSHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// SumBLAKE3 computes the BLAKE3-256 digest of data in one shot. Used for
// the per-chunk content hash, which favors BLAKE3's throughput over the
// whole-file hash's SHA-2 compatibility requirement.
func SumBLAKE3(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// WholeFileHash computes the whole-file hash using alg and returns the hex
// encoding, matching the manifest's on-the-wire representation.
func WholeFileHash(alg constants.HashAlgorithm, data []byte) string {
	switch alg {
	case constants.HashSHA512:
		return HexEncode(SumSHA512(data))
	default:
		return HexEncode(SumSHA256(data))
	}
}

// HashAlgorithmFromHexLen infers the whole-file hash algorithm from the
// hex-encoded digest length, preserving the source system's backward
// compatibility rule (§9): 64 hex chars ⇒ SHA-256, 128 ⇒ SHA-512.
func HashAlgorithmFromHexLen(hexLen int) (constants.HashAlgorithm, bool) {
	switch hexLen {
	case constants.SHA256HexLen:
		return constants.HashSHA256, true
	case constants.SHA512HexLen:
		return constants.HashSHA512, true
	default:
		return 0, false
	}
}
