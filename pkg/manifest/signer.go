// signer.go implements the manifest's dual classical + post-quantum
// signature (§4.5): both signatures must validate, and the tie-break rule
// rejects a manifest for which exactly one does.
package manifest

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
)

// SignerKeyPairs bundles the classical and post-quantum signing keys used
// to produce a manifest's dual signature.
type SignerKeyPairs struct {
	Ed25519Public  ed25519.PublicKey
	Ed25519Private ed25519.PrivateKey
	MLDSAPublic    *mldsa65.PublicKey
	MLDSAPrivate   *mldsa65.PrivateKey
}

// GenerateSignerKeyPairs generates a fresh Ed25519 + ML-DSA-65 keypair set.
func GenerateSignerKeyPairs(rand io.Reader) (*SignerKeyPairs, error) {
	edPub, edPriv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, xerrors.New("manifest.generate_signer_keys", xerrors.ErrSignatureFailure, err)
	}
	mldsaPub, mldsaPriv, err := mldsa65.GenerateKey(rand)
	if err != nil {
		return nil, xerrors.New("manifest.generate_signer_keys", xerrors.ErrSignatureFailure, err)
	}
	return &SignerKeyPairs{
		Ed25519Public:  edPub,
		Ed25519Private: edPriv,
		MLDSAPublic:    mldsaPub,
		MLDSAPrivate:   mldsaPriv,
	}, nil
}

// TrustedSigner holds the public halves of the signing keypairs a verifier
// trusts to have authored a manifest. Verify checks the signature values
// AND the embedded public keys against these, rather than trusting
// whatever key a signature happens to carry (§4.5: authenticity rests on
// the file owner's published identity, not on self-consistency alone).
type TrustedSigner struct {
	Ed25519Public ed25519.PublicKey
	MLDSAPublic   *mldsa65.PublicKey
}

// TrustedSignerFromKeys derives the TrustedSigner a verifier should use for
// manifests produced by keys, for same-session round trips and tests.
func TrustedSignerFromKeys(keys *SignerKeyPairs) TrustedSigner {
	return TrustedSigner{Ed25519Public: keys.Ed25519Public, MLDSAPublic: keys.MLDSAPublic}
}

// Sign computes both required signatures over m's canonical serialization
// and appends them (replacing any existing Signatures slice).
func Sign(m Manifest, keys *SignerKeyPairs) (Manifest, error) {
	payload := Canonical(m)

	edSig := ed25519.Sign(keys.Ed25519Private, payload)

	mldsaSig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(keys.MLDSAPrivate, payload, nil, false, mldsaSig); err != nil {
		return Manifest{}, xerrors.New("manifest.sign", xerrors.ErrSignatureFailure, err)
	}

	mldsaPubBytes := make([]byte, constants.MLDSA65PublicKeySize)
	keys.MLDSAPublic.Pack(mldsaPubBytes)

	m.Signatures = []Signature{
		{Algorithm: constants.SignatureEd25519, PublicKey: append([]byte{}, keys.Ed25519Public...), Value: edSig},
		{Algorithm: constants.SignatureMLDSA65, PublicKey: mldsaPubBytes, Value: mldsaSig},
	}
	return m, nil
}

// Verify checks the manifest's dual signature against its canonical
// serialization and against trusted: the file owner's published signing
// identity. Per the tie-break rule: both valid ⇒ accept; anything else
// (zero valid, exactly one valid, or a signature whose embedded public key
// does not match trusted) ⇒ reject with SignatureFailure. A signature's own
// PublicKey field is never trusted on its own — it must match trusted byte
// for byte before its Value is even checked, otherwise a party that
// controls the manifest bytes could mint its own keypair, sign with it, and
// have Verify accept a manifest it never actually received from the owner.
func Verify(m Manifest, trusted TrustedSigner) error {
	if err := ValidateChunkOrder(m); err != nil {
		return err
	}

	var edSig, mldsaSig *Signature
	for i := range m.Signatures {
		switch m.Signatures[i].Algorithm {
		case constants.SignatureEd25519:
			edSig = &m.Signatures[i]
		case constants.SignatureMLDSA65:
			mldsaSig = &m.Signatures[i]
		}
	}
	if edSig == nil || mldsaSig == nil {
		return xerrors.New("manifest.verify", xerrors.ErrSignatureFailure, xerrors.ErrSignatureFailure)
	}

	payload := Canonical(Manifest{
		Version:            m.Version,
		FileID:             m.FileID,
		CiphertextFilename: m.CiphertextFilename,
		FilenameSalt:       m.FilenameSalt,
		MimeType:           m.MimeType,
		TotalSize:          m.TotalSize,
		WholeFileHash:      m.WholeFileHash,
		WholeFileHashAlgo:  m.WholeFileHashAlgo,
		Chunks:             m.Chunks,
		CreatedAt:          m.CreatedAt,
		AlgorithmVersion:   m.AlgorithmVersion,
	})

	edValid := len(trusted.Ed25519Public) == ed25519.PublicKeySize &&
		bytes.Equal(edSig.PublicKey, trusted.Ed25519Public) &&
		ed25519.Verify(trusted.Ed25519Public, payload, edSig.Value)

	mldsaValid := false
	if trusted.MLDSAPublic != nil {
		trustedPubBytes := make([]byte, constants.MLDSA65PublicKeySize)
		trusted.MLDSAPublic.Pack(trustedPubBytes)
		if bytes.Equal(mldsaSig.PublicKey, trustedPubBytes) {
			mldsaValid = mldsa65.Verify(trusted.MLDSAPublic, payload, nil, mldsaSig.Value)
		}
	}

	if edValid && mldsaValid {
		return nil
	}
	return xerrors.New("manifest.verify", xerrors.ErrSignatureFailure, xerrors.ErrSignatureFailure)
}

// ValidateChunkOrder enforces the manifest invariant that the chunk list
// is strictly ordered by index with no gaps.
func ValidateChunkOrder(m Manifest) error {
	for i, c := range m.Chunks {
		if c.Index != i {
			return xerrors.New("manifest.validate_chunk_order", xerrors.ErrInvalidManifest, xerrors.ErrInvalidManifest)
		}
	}
	return nil
}
