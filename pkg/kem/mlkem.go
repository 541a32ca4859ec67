// mlkem.go implements the ML-KEM-768 key encapsulation mechanism wrapper
// (NIST FIPS 203, Category 3), the post-quantum half of the hybrid
// encapsulation used to wrap content-encryption keys for a file's owner
// and for each share recipient (§4.2).
package kem

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/primitives"
)

// PublicKey wraps an ML-KEM-768 encapsulation key.
type PublicKey struct {
	key *mlkem768.PublicKey
}

// PrivateKey wraps an ML-KEM-768 decapsulation key.
type PrivateKey struct {
	key *mlkem768.PrivateKey
}

// KeyPair is an ML-KEM-768 key pair.
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// GenerateKeyPair generates a new ML-KEM-768 key pair from the system CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(primitives.Reader)
	if err != nil {
		return nil, xerrors.New("kem.generate", xerrors.ErrKemFailure, err)
	}
	return &KeyPair{
		Public:  &PublicKey{key: pk},
		Private: &PrivateKey{key: sk},
	}, nil
}

// Encapsulate generates a fresh shared secret under the recipient's public
// key, returning the wire ciphertext alongside it.
func Encapsulate(pk *PublicKey) (ciphertext, sharedSecret []byte, err error) {
	if pk == nil || pk.key == nil {
		return nil, nil, xerrors.New("kem.encapsulate", xerrors.ErrKemFailure, xerrors.ErrInternal)
	}

	ct := make([]byte, mlkem768.CiphertextSize)
	ss := make([]byte, mlkem768.SharedKeySize)

	seed := make([]byte, mlkem768.EncapsulationSeedSize)
	if err := primitives.SecureRandom(seed); err != nil {
		return nil, nil, xerrors.New("kem.encapsulate", xerrors.ErrKemFailure, err)
	}

	pk.key.EncapsulateTo(ct, ss, seed)
	return ct, ss, nil
}

// Decapsulate recovers the shared secret from ciphertext under sk. The
// ciphertext is first passed through ReconcileCiphertextLength (§4.2); any
// failure from the underlying primitive after reconciliation surfaces as
// ErrKemFailure rather than a more specific corruption error, since a
// decapsulation failure is indistinguishable from noise on the wire.
func Decapsulate(sk *PrivateKey, ciphertext []byte) ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, xerrors.New("kem.decapsulate", xerrors.ErrKemFailure, xerrors.ErrInternal)
	}

	reconciled := ReconcileCiphertextLength(ciphertext)

	ss := make([]byte, mlkem768.SharedKeySize)
	sk.key.DecapsulateTo(ss, reconciled)
	return ss, nil
}

// ReconcileCiphertextLength applies the §4.2 length-reconciliation rule to
// a raw ciphertext before it reaches the underlying KEM primitive:
//
//   - exactly double the expected length ⇒ take the first half (a known
//     hex-double encoding bug observed on the wire);
//   - longer than expected but not exactly double ⇒ truncate;
//   - shorter than expected ⇒ right-pad with zeros.
//
// The primitive itself never sees a mis-sized buffer; reconciliation
// always produces exactly constants.MLKEMCiphertextSize bytes, and the
// operation proceeds even when reconciliation had to act.
func ReconcileCiphertextLength(ciphertext []byte) []byte {
	const want = constants.MLKEMCiphertextSize

	switch {
	case len(ciphertext) == want*2:
		return ciphertext[:want]
	case len(ciphertext) > want:
		return ciphertext[:want]
	case len(ciphertext) < want:
		padded := make([]byte, want)
		copy(padded, ciphertext)
		return padded
	default:
		return ciphertext
	}
}

// Bytes returns the packed encoding of the public key.
func (pk *PublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// Bytes returns the packed encoding of the private key.
func (sk *PrivateKey) Bytes() []byte {
	if sk == nil || sk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PrivateKeySize)
	sk.key.Pack(buf)
	return buf
}

// ParsePublicKey parses an ML-KEM-768 public key from its packed encoding.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, xerrors.New("kem.parse_public", xerrors.ErrKemFailure, xerrors.ErrMalformedEncoding)
	}
	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, xerrors.New("kem.parse_public", xerrors.ErrKemFailure, err)
	}
	return &PublicKey{key: pk}, nil
}

// ParsePrivateKey parses an ML-KEM-768 private key from its packed encoding.
func ParsePrivateKey(data []byte) (*PrivateKey, error) {
	if len(data) != constants.MLKEMPrivateKeySize {
		return nil, xerrors.New("kem.parse_private", xerrors.ErrKemFailure, xerrors.ErrMalformedEncoding)
	}
	sk := new(mlkem768.PrivateKey)
	if err := sk.Unpack(data); err != nil {
		return nil, xerrors.New("kem.parse_private", xerrors.ErrKemFailure, err)
	}
	return &PrivateKey{key: sk}, nil
}

// Zeroize clears the key pair's references. CIRCL does not expose direct
// in-place zeroization of its internal key state.
func (kp *KeyPair) Zeroize() {
	if kp == nil {
		return
	}
	kp.Private = nil
	kp.Public = nil
}

// SelfTest runs a fresh-keypair encapsulate/decapsulate round trip and
// reports whether the two sides agree on the shared secret. It lives here
// rather than alongside pkg/primitives' AEAD/hash self-check because this
// package depends on primitives, not the other way around; callers that
// want one combined report (cmd/filecore's demo does) run both and merge
// the results themselves.
func SelfTest() error {
	kp, err := GenerateKeyPair()
	if err != nil {
		return xerrors.New("kem.selftest", xerrors.ErrKemFailure, err)
	}
	ct, ss1, err := Encapsulate(kp.Public)
	if err != nil {
		return xerrors.New("kem.selftest", xerrors.ErrKemFailure, err)
	}
	ss2, err := Decapsulate(kp.Private, ct)
	if err != nil {
		return xerrors.New("kem.selftest", xerrors.ErrKemFailure, err)
	}
	if !primitives.ConstantTimeEqual(ss1, ss2) {
		return xerrors.New("kem.selftest", xerrors.ErrKemFailure, xerrors.ErrKemFailure)
	}
	return nil
}
