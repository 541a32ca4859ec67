// Package share implements the CekWrapper port (§4.8, §9 "cyclic-like
// coupling" design note): re-encapsulating a file's content-encryption key
// to a recipient's KEM public key, and recovering it on the recipient's
// side. The upload engine depends only on the CekWrapper interface so it
// never couples directly to share-acceptance code.
package share

import (
	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/primitives"
)

// CekWrapper re-encapsulates a CEK for a recipient and recovers it given
// the recipient's KEM secret key. Implemented here and consumed by both
// the upload engine's self-wrap step and the share module's recipient
// wrap/accept steps, avoiding a direct dependency between them.
type CekWrapper interface {
	WrapFor(cek []byte, recipientKeyID string, recipientPK *kem.PublicKey) (manifest.WrappingRecord, error)
	UnwrapAs(record manifest.WrappingRecord, mySK *kem.PrivateKey) ([]byte, error)
}

// KEMWrapper is the standard CekWrapper built on ML-KEM-768 + XChaCha20-Poly1305.
type KEMWrapper struct{}

// NewKEMWrapper constructs the default CekWrapper.
func NewKEMWrapper() *KEMWrapper {
	return &KEMWrapper{}
}

// WrapFor encapsulates to recipientPK, then AEAD-encrypts cek under the
// resulting shared secret with a fresh nonce. The shared secret is zeroed
// immediately after use and never stored.
func (w *KEMWrapper) WrapFor(cek []byte, recipientKeyID string, recipientPK *kem.PublicKey) (manifest.WrappingRecord, error) {
	if len(cek) != constants.CEKSize {
		return manifest.WrappingRecord{}, xerrors.New("share.wrap_for", xerrors.ErrInternal, xerrors.ErrInternal)
	}

	ciphertext, sharedSecret, err := kem.Encapsulate(recipientPK)
	if err != nil {
		return manifest.WrappingRecord{}, xerrors.New("share.wrap_for", xerrors.ErrKemFailure, err)
	}
	defer primitives.Zeroize(sharedSecret)

	nonce := make([]byte, constants.AEADNonceSize)
	if err := primitives.SecureRandom(nonce); err != nil {
		return manifest.WrappingRecord{}, xerrors.New("share.wrap_for", xerrors.ErrInternal, err)
	}

	aead, err := primitives.NewAEAD(sharedSecret)
	if err != nil {
		return manifest.WrappingRecord{}, xerrors.New("share.wrap_for", xerrors.ErrAeadFailure, err)
	}
	wrapped, err := aead.Seal(nonce, cek, nil)
	if err != nil {
		return manifest.WrappingRecord{}, xerrors.New("share.wrap_for", xerrors.ErrAeadFailure, err)
	}

	return manifest.WrappingRecord{
		RecipientKeyID: recipientKeyID,
		KEMCiphertext:  ciphertext,
		WrappedCEK:     wrapped,
		Nonce:          nonce,
	}, nil
}

// UnwrapAs decapsulates record's KEM ciphertext with mySK (applying C2's
// length reconciliation), then AEAD-decrypts the wrapped CEK. A mismatched
// secret key surfaces as AeadFailure (authentication failure on the wrong
// key), not a distinguishable error.
func (w *KEMWrapper) UnwrapAs(record manifest.WrappingRecord, mySK *kem.PrivateKey) ([]byte, error) {
	sharedSecret, err := kem.Decapsulate(mySK, record.KEMCiphertext)
	if err != nil {
		return nil, xerrors.New("share.unwrap_as", xerrors.ErrKemFailure, err)
	}
	defer primitives.Zeroize(sharedSecret)

	aead, err := primitives.NewAEAD(sharedSecret)
	if err != nil {
		return nil, xerrors.New("share.unwrap_as", xerrors.ErrAeadFailure, err)
	}
	cek, err := aead.Open(record.Nonce, record.WrappedCEK, nil)
	if err != nil {
		return nil, xerrors.New("share.unwrap_as", xerrors.ErrAeadFailure, err)
	}
	return cek, nil
}
