package keyring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/keyring"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/share"
)

func manifestWrappingRecordFixture() manifest.WrappingRecord {
	return manifest.WrappingRecord{
		RecipientKeyID: "fixture",
		KEMCiphertext:  make([]byte, constants.MLKEMCiphertextSize),
		WrappedCEK:     make([]byte, constants.CEKSize+constants.AEADTagSize),
		Nonce:          make([]byte, constants.AEADNonceSize),
	}
}

func unlockedKeyring(t *testing.T) (*keyring.Keyring, *kem.KeyPair) {
	t.Helper()
	kp, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	kr := keyring.New()
	seed := make([]byte, 32)
	require.NoError(t, primitives.SecureRandom(seed))

	err = kr.Unlock(keyring.UserRecord{
		KEMKeyPair:    kp,
		MasterKeySeed: seed,
	})
	require.NoError(t, err)
	return kr, kp
}

func TestUnlockedKeyringHasKeysAndMasterKey(t *testing.T) {
	kr, _ := unlockedKeyring(t)
	require.True(t, kr.HasKeys())

	mk, err := kr.GetMasterKey()
	require.NoError(t, err)
	require.Len(t, mk, constants.AEADKeySize)
}

func TestLockedKeyringRejectsAccess(t *testing.T) {
	kr := keyring.New()
	require.False(t, kr.HasKeys())

	_, err := kr.GetMasterKey()
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrKeyUnavailable))

	_, err = kr.UnwrapCEK(manifestWrappingRecordFixture())
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrKeyUnavailable))
}

func TestKeyringUnwrapCEKMatchesShareWrapper(t *testing.T) {
	kr, kp := unlockedKeyring(t)

	cek := make([]byte, constants.CEKSize)
	require.NoError(t, primitives.SecureRandom(cek))

	wrapper := share.NewKEMWrapper()
	record, err := wrapper.WrapFor(cek, "self", kp.Public)
	require.NoError(t, err)

	recovered, err := kr.UnwrapCEK(record)
	require.NoError(t, err)
	require.Equal(t, cek, recovered)
}

func TestClearZeroesAndLocks(t *testing.T) {
	kr, _ := unlockedKeyring(t)
	kr.Clear()
	require.False(t, kr.HasKeys())

	_, err := kr.GetMasterKey()
	require.Error(t, err)
}

func TestTrustedSignerMatchesSignerKeys(t *testing.T) {
	kp, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	signerKeys, err := manifest.GenerateSignerKeyPairs(primitives.Reader)
	require.NoError(t, err)

	mldsaPubBytes := make([]byte, constants.MLDSA65PublicKeySize)
	signerKeys.MLDSAPublic.Pack(mldsaPubBytes)

	kr := keyring.New()
	seed := make([]byte, 32)
	require.NoError(t, primitives.SecureRandom(seed))
	require.NoError(t, kr.Unlock(keyring.UserRecord{
		KEMKeyPair:    kp,
		MasterKeySeed: seed,
		SignatureKeyPairs: []keyring.SignatureKeyPair{
			{Algorithm: constants.SignatureEd25519, PublicKey: append([]byte{}, signerKeys.Ed25519Public...)},
			{Algorithm: constants.SignatureMLDSA65, PublicKey: mldsaPubBytes},
		},
	}))

	trusted, err := kr.TrustedSigner()
	require.NoError(t, err)

	signed, err := manifest.Sign(mustManifest(t), signerKeys)
	require.NoError(t, err)
	require.NoError(t, manifest.Verify(signed, trusted))
}

func TestTrustedSignerFailsWithoutSignatureKeyPairs(t *testing.T) {
	kr, _ := unlockedKeyring(t)
	_, err := kr.TrustedSigner()
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrKeyUnavailable))
}

func mustManifest(t *testing.T) manifest.Manifest {
	t.Helper()
	chunks := []manifest.Chunk{{Index: 0, PlaintextSize: 4, CiphertextSize: 20, Nonce: make([]byte, 24), ContentHash: make([]byte, 32)}}
	m, err := manifest.Build("file-1", nil, nil, "text/plain", 4, "hash", constants.HashSHA256, chunks, time.Unix(0, 0))
	require.NoError(t, err)
	return m
}
