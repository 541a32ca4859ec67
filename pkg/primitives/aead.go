// aead.go implements authenticated encryption with associated data using
// XChaCha20-Poly1305: a 24-byte extended nonce removes the need for a
// per-key counter discipline, which matters here because chunk nonces are
// derived deterministically from a per-file prefix and chunk index rather
// than drawn at random (§4.6 step 1).
package primitives

import (
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
)

// AEAD wraps an XChaCha20-Poly1305 cipher bound to a single 32-byte key.
// A value is safe for concurrent use; the underlying cipher.AEAD has no
// mutable state between calls since nonces are supplied explicitly.
type AEAD struct {
	key []byte
}

// NewAEAD constructs an AEAD cipher context for key, which must be exactly
// constants.AEADKeySize bytes.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != constants.AEADKeySize {
		return nil, xerrors.New("aead.new", xerrors.ErrAeadFailure, xerrors.ErrInternal)
	}
	return &AEAD{key: key}, nil
}

// Seal encrypts plaintext under nonce (exactly constants.AEADNonceSize
// bytes) and associatedData, returning ciphertext||tag.
func (a *AEAD) Seal(nonce, plaintext, associatedData []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, xerrors.New("aead.seal", xerrors.ErrAeadFailure, xerrors.ErrInternal)
	}
	cipherAEAD, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return nil, xerrors.New("aead.seal", xerrors.ErrAeadFailure, err)
	}
	return cipherAEAD.Seal(nil, nonce, plaintext, associatedData), nil
}

// Open decrypts and authenticates ciphertext (ciphertext||tag) under nonce
// and associatedData. Authentication failure is reported as ErrAeadFailure,
// never as a more specific error, so callers cannot distinguish tampering
// from corruption.
func (a *AEAD) Open(nonce, ciphertext, associatedData []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, xerrors.New("aead.open", xerrors.ErrAeadFailure, xerrors.ErrInternal)
	}
	if len(ciphertext) < constants.AEADTagSize {
		return nil, xerrors.New("aead.open", xerrors.ErrAeadFailure, xerrors.ErrInternal)
	}
	cipherAEAD, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return nil, xerrors.New("aead.open", xerrors.ErrAeadFailure, err)
	}
	plaintext, err := cipherAEAD.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return nil, xerrors.New("aead.open", xerrors.ErrAeadFailure, err)
	}
	return plaintext, nil
}

// Overhead returns the number of bytes XChaCha20-Poly1305 adds to
// plaintext (the Poly1305 tag; the nonce travels out-of-band in the
// manifest rather than being prepended to the ciphertext).
func (a *AEAD) Overhead() int {
	return constants.AEADTagSize
}

// ChunkNonce derives the deterministic per-chunk nonce from a 20-byte
// per-file prefix and a zero-based chunk index, per §4.6 step 1:
// nonce = prefix || little-endian chunk index (uint32).
//
// This guarantees nonce uniqueness within one file without a random draw
// per chunk, and makes decryption stateless (any chunk can be decrypted
// independently given its index).
func ChunkNonce(prefix []byte, chunkIndex uint32) []byte {
	nonce := make([]byte, constants.AEADNonceSize)
	n := copy(nonce, prefix)
	nonce[n] = byte(chunkIndex)
	nonce[n+1] = byte(chunkIndex >> 8)
	nonce[n+2] = byte(chunkIndex >> 16)
	nonce[n+3] = byte(chunkIndex >> 24)
	return nonce
}

// NoncePrefixSize is the length of the per-file nonce prefix consumed by
// ChunkNonce: the full 24-byte nonce minus the 4-byte little-endian index.
const NoncePrefixSize = constants.AEADNonceSize - 4
