// Package constants defines the algorithm parameters and protocol constants
// for the transfer core: chunk and key sizes, KEM/AEAD byte lengths, and
// domain separators for key derivation.
package constants

// Protocol / manifest identification.
const (
	// AlgorithmVersion identifies the algorithm suite used by manifests
	// produced by this version of the transfer core.
	AlgorithmVersion = "chkem-mlkem768-xchacha20poly1305-v1"

	// ManifestVersion is the manifest schema version tag.
	ManifestVersion uint16 = 1
)

// ML-KEM-768 parameters (NIST FIPS 203, Category 3 security).
const (
	// MLKEMPublicKeySize is the size of an ML-KEM-768 encapsulation key.
	MLKEMPublicKeySize = 1184

	// MLKEMPrivateKeySize is the size of an ML-KEM-768 decapsulation key.
	MLKEMPrivateKeySize = 2400

	// MLKEMCiphertextSize is the size of an ML-KEM-768 ciphertext.
	MLKEMCiphertextSize = 1088

	// MLKEMSharedSecretSize is the size of the shared secret from ML-KEM.
	MLKEMSharedSecretSize = 32

	// MLKEMEncapsulationSeedSize is the size of the random seed consumed
	// by deterministic encapsulation.
	MLKEMEncapsulationSeedSize = 32
)

// AEAD parameters (XChaCha20-Poly1305).
const (
	// CEKSize is the size of a content-encryption key in bytes.
	CEKSize = 32

	// AEADKeySize is the XChaCha20-Poly1305 key size.
	AEADKeySize = 32

	// AEADNonceSize is the XChaCha20-Poly1305 extended nonce size.
	AEADNonceSize = 24

	// AEADTagSize is the Poly1305 authentication tag size.
	AEADTagSize = 16

	// FilenameSaltSize is the size of the random salt mixed into the
	// per-file filename-encryption key derivation.
	FilenameSaltSize = 16
)

// Chunking parameters.
const (
	// DefaultChunkSize is the default plaintext chunk size (4 MiB).
	DefaultChunkSize = 4 * 1024 * 1024

	// DefaultUploadConcurrency is the default number of concurrent PUTs.
	DefaultUploadConcurrency = 3

	// DefaultDownloadConcurrency is the default number of concurrent GETs.
	DefaultDownloadConcurrency = 6

	// DefaultRetryMax is the default per-chunk PUT/GET retry budget.
	DefaultRetryMax = 3

	// DefaultProgressMinIntervalMs throttles progress sink emissions.
	DefaultProgressMinIntervalMs = 100

	// DefaultObjectStoreRPS is the default client-side request rate cap
	// against the object store's presigned PUT/GET endpoints. 0 means
	// unlimited (the ObjectStoreRPS zero value is left unbounded rather
	// than defaulted, unlike the other knobs in this block).
	DefaultObjectStoreRPS = 0

	// DefaultObjectStoreBurst is the token bucket burst size used when
	// ObjectStoreRPS is non-zero.
	DefaultObjectStoreBurst = 8

	// MaxSizeReconciliationSlack is the maximum number of trailing bytes
	// tolerated before falling back to the truncation sweep (§4.7).
	MaxSizeReconciliationSlack = 32

	// MaxChunkIndex bounds the number of chunks a single file may have:
	// the per-chunk nonce reserves the last 4 bytes of the 24-byte nonce
	// for a little-endian chunk index, so indices must fit in uint32.
	MaxChunkIndex = 1<<32 - 1
)

// Worker pool parameters.
const (
	// MinWorkerPoolSize is the minimum number of CPU workers.
	MinWorkerPoolSize = 2

	// MaxWorkerPoolSize is the maximum number of CPU workers.
	MaxWorkerPoolSize = 8

	// DefaultWorkerQueueDepth bounds the worker pool's job queue.
	DefaultWorkerQueueDepth = 64
)

// ML-DSA-65 parameters (NIST FIPS 204, Category 3 security), the
// post-quantum half of the manifest's required dual signature.
const (
	// MLDSA65PublicKeySize is the size of an ML-DSA-65 verification key.
	MLDSA65PublicKeySize = 1952

	// MLDSA65PrivateKeySize is the size of an ML-DSA-65 signing key.
	MLDSA65PrivateKeySize = 4032

	// MLDSA65SignatureSize is the size of an ML-DSA-65 signature.
	MLDSA65SignatureSize = 3309
)

// Key derivation domain separators (HKDF "info" parameters).
const (
	// DomainMasterKey separates master-key derivation from other uses
	// of the user's unlocked key material.
	DomainMasterKey = "filecore-v1-master-key"

	// DomainFilenameKey separates filename/foldername encryption keys
	// derived from the master key from file-content keys.
	DomainFilenameKey = "filecore-v1-filename-key"

	// DomainCEKWrap separates the CEK-wrapping AEAD key derived from a
	// KEM shared secret from any other use of that secret.
	DomainCEKWrap = "filecore-v1-cek-wrap"
)

// Hash output lengths (hex-encoded), used to infer the whole-file hash
// algorithm per the backward-compatible length-sniffing rule (§9).
const (
	// SHA256HexLen is the hex length of a SHA-256 digest.
	SHA256HexLen = 64

	// SHA512HexLen is the hex length of a SHA-512 digest.
	SHA512HexLen = 128
)

// HashAlgorithm identifies a whole-file hash algorithm.
type HashAlgorithm uint8

const (
	// HashSHA256 selects SHA-256 for the whole-file hash.
	HashSHA256 HashAlgorithm = iota
	// HashSHA512 selects SHA-512 for the whole-file hash.
	HashSHA512
	// HashBLAKE3 selects BLAKE3-256 for the per-chunk content hash.
	HashBLAKE3
)

// String returns a human-readable name for the hash algorithm.
func (h HashAlgorithm) String() string {
	switch h {
	case HashSHA256:
		return "SHA-256"
	case HashSHA512:
		return "SHA-512"
	case HashBLAKE3:
		return "BLAKE3"
	default:
		return "Unknown"
	}
}

// CompressionAlgorithm identifies a per-chunk compression codec.
type CompressionAlgorithm uint8

const (
	// CompressionNone means the chunk is stored uncompressed.
	CompressionNone CompressionAlgorithm = iota
	// CompressionZstd selects zstd.
	CompressionZstd
	// CompressionGzip selects gzip.
	CompressionGzip
	// CompressionDeflate selects raw DEFLATE.
	CompressionDeflate
)

// String returns a human-readable name for the compression algorithm.
func (c CompressionAlgorithm) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	case CompressionDeflate:
		return "deflate"
	default:
		return "unknown"
	}
}

// IsSupported returns true if the tag is one this version understands.
func (c CompressionAlgorithm) IsSupported() bool {
	switch c {
	case CompressionNone, CompressionZstd, CompressionGzip, CompressionDeflate:
		return true
	default:
		return false
	}
}

// SignatureAlgorithm identifies a manifest signature algorithm.
type SignatureAlgorithm uint8

const (
	// SignatureEd25519 is the classical signature half of the manifest's
	// required dual signature.
	SignatureEd25519 SignatureAlgorithm = iota
	// SignatureMLDSA65 is the post-quantum signature half.
	SignatureMLDSA65
)

// String returns a human-readable name for the signature algorithm.
func (s SignatureAlgorithm) String() string {
	switch s {
	case SignatureEd25519:
		return "Ed25519"
	case SignatureMLDSA65:
		return "ML-DSA-65"
	default:
		return "Unknown"
	}
}
