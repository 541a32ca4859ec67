// Package primitives implements the transfer core's cryptographic building
// blocks (C1): AEAD, hashing, key derivation, and bounded-chunk codecs.
// It wraps Go's standard library and a small set of third-party primitives
// with consistent error handling so higher layers never touch raw crypto
// APIs directly.
package primitives

import (
	"crypto/rand"
	"io"

	"github.com/filecore/transfer-core/internal/xerrors"
)

// Reader is an io.Reader returning cryptographically secure random bytes.
var Reader = rand.Reader

// SecureRandom fills b with cryptographically secure random bytes.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return xerrors.New("random", xerrors.ErrInternal, err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zeroize overwrites b with zeros. The Go runtime may retain copies
// elsewhere; this is best-effort hygiene, not a hard guarantee.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeAll zeroizes every slice given.
func ZeroizeAll(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}

// ConstantTimeEqual compares two byte slices in constant time.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
