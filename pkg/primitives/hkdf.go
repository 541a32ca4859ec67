// hkdf.go implements HKDF-SHA256 key derivation with explicit domain
// separation via the "info" parameter, used to derive the keyring's
// master key and per-purpose sub-keys from long-term secret material.
package primitives

import (
	"crypto/sha256"

	"golang.org/x/crypto/hkdf"

	"github.com/filecore/transfer-core/internal/xerrors"
)

// DeriveKey runs HKDF-SHA256 over secret with the given salt and domain
// info string, producing outputLen bytes of key material.
func DeriveKey(secret, salt []byte, domain string, outputLen int) ([]byte, error) {
	if outputLen <= 0 {
		return nil, xerrors.New("hkdf", xerrors.ErrInternal, xerrors.ErrInternal)
	}
	reader := hkdf.New(sha256.New, secret, salt, []byte(domain))
	out := make([]byte, outputLen)
	if _, err := reader.Read(out); err != nil {
		return nil, xerrors.New("hkdf", xerrors.ErrInternal, err)
	}
	return out, nil
}
