// Package keyring holds, for the active session, the user's unlocked
// long-term keypairs and a derived master key (§4.3, §9 "Shared
// key-manager singleton → explicit capability"). Unlike the source system
// this is modeled from, there is no module-level singleton: callers
// construct a Keyring and thread it explicitly into the upload and
// download engines as a capability reference.
package keyring

import (
	"crypto/ed25519"
	"sync"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/share"
)

// SignatureKeyPair holds one signing keypair (Ed25519 or ML-DSA-65, as
// named by Algorithm), kept opaque to this
// package beyond byte slices since the manifest signer (C5) owns the
// concrete Ed25519/ML-DSA types.
type SignatureKeyPair struct {
	Algorithm  constants.SignatureAlgorithm
	PublicKey  []byte
	PrivateKey []byte
}

// UserRecord is the opaque, server-supplied bundle of the user's encrypted
// keypairs, as returned by GET /me (§6). Decrypting it into usable key
// material is outside this package's responsibility; Unlock receives the
// already-decrypted key material.
type UserRecord struct {
	KEMKeyPair        *kem.KeyPair
	SignatureKeyPairs []SignatureKeyPair
	MasterKeySeed     []byte
}

// Keyring is the process-wide shared mutable object named in §5's
// resource model: unlock/clear take the writer lock; unwrap_cek and
// get_master_key take the reader lock.
type Keyring struct {
	mu sync.RWMutex

	unlocked          bool
	kemKeyPair        *kem.KeyPair
	signatureKeyPairs []SignatureKeyPair
	masterKey         []byte

	wrapper share.CekWrapper
}

// New constructs a locked Keyring using the default KEM-based CekWrapper.
func New() *Keyring {
	return &Keyring{wrapper: share.NewKEMWrapper()}
}

// Unlock installs the session's unlocked long-term key material and
// derives the session's 32-byte master key via HKDF over the supplied
// seed. Filenames are encrypted under a per-file key derived from the
// CEK instead (pkg/primitives.EncryptFilename), not from this master key,
// so a share recipient who only ever receives a re-wrapped CEK can still
// read the name; the master key backs other per-session derivations that
// do require the unlocked long-term secret.
func (k *Keyring) Unlock(record UserRecord) error {
	masterKey, err := primitives.DeriveKey(record.MasterKeySeed, nil, constants.DomainMasterKey, constants.AEADKeySize)
	if err != nil {
		return xerrors.New("keyring.unlock", xerrors.ErrKeyUnavailable, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.kemKeyPair = record.KEMKeyPair
	k.signatureKeyPairs = record.SignatureKeyPairs
	k.masterKey = masterKey
	k.unlocked = true
	return nil
}

// HasKeys reports whether the keyring currently holds unlocked key
// material.
func (k *Keyring) HasKeys() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.unlocked
}

// GetMasterKey returns the session's 32-byte master key. Fails with
// KeyUnavailable if the keyring is locked.
func (k *Keyring) GetMasterKey() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.unlocked {
		return nil, xerrors.New("keyring.get_master_key", xerrors.ErrKeyUnavailable, xerrors.ErrKeyUnavailable)
	}
	out := make([]byte, len(k.masterKey))
	copy(out, k.masterKey)
	return out, nil
}

// UnwrapCEK decapsulates and AEAD-decrypts record using the keyring's
// unlocked KEM secret key, delegating to the share package's CekWrapper
// so both this oracle and the share-acceptance flow share one
// implementation (§9).
func (k *Keyring) UnwrapCEK(record manifest.WrappingRecord) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.unlocked || k.kemKeyPair == nil {
		return nil, xerrors.New("keyring.unwrap_cek", xerrors.ErrKeyUnavailable, xerrors.ErrKeyUnavailable)
	}
	return k.wrapper.UnwrapAs(record, k.kemKeyPair.Private)
}

// SignaturePublicKeys returns the public halves of the session's signing
// keypairs, used by the manifest signer's verification path.
func (k *Keyring) SignaturePublicKeys() []SignatureKeyPair {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]SignatureKeyPair, len(k.signatureKeyPairs))
	copy(out, k.signatureKeyPairs)
	return out
}

// TrustedSigner builds the manifest.TrustedSigner a caller should verify
// incoming manifests against: the session's own published Ed25519 and
// ML-DSA-65 public keys, parsed out of SignaturePublicKeys. Fails with
// KeyUnavailable if the keyring is locked or either algorithm's keypair is
// missing.
func (k *Keyring) TrustedSigner() (manifest.TrustedSigner, error) {
	keys := k.SignaturePublicKeys()
	var edPub ed25519.PublicKey
	var mldsaPub *mldsa65.PublicKey
	for _, kp := range keys {
		switch kp.Algorithm {
		case constants.SignatureEd25519:
			if len(kp.PublicKey) == ed25519.PublicKeySize {
				edPub = ed25519.PublicKey(kp.PublicKey)
			}
		case constants.SignatureMLDSA65:
			if len(kp.PublicKey) == constants.MLDSA65PublicKeySize {
				pub := new(mldsa65.PublicKey)
				if err := pub.Unpack(kp.PublicKey); err == nil {
					mldsaPub = pub
				}
			}
		}
	}
	if edPub == nil || mldsaPub == nil {
		return manifest.TrustedSigner{}, xerrors.New("keyring.trusted_signer", xerrors.ErrKeyUnavailable, xerrors.ErrKeyUnavailable)
	}
	return manifest.TrustedSigner{Ed25519Public: edPub, MLDSAPublic: mldsaPub}, nil
}

// Clear zeroes the master key and the signing private keys, drops the KEM
// key pair (whose internal state CIRCL does not let us zero in place), and
// returns the keyring to the locked state. Safe to call repeatedly.
func (k *Keyring) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()

	primitives.Zeroize(k.masterKey)
	k.masterKey = nil
	if k.kemKeyPair != nil {
		k.kemKeyPair.Zeroize()
		k.kemKeyPair = nil
	}
	for i := range k.signatureKeyPairs {
		primitives.Zeroize(k.signatureKeyPairs[i].PrivateKey)
	}
	k.signatureKeyPairs = nil
	k.unlocked = false
}
