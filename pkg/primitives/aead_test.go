package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/primitives"
)

func TestAEADSealOpenRoundTrip(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	require.NoError(t, primitives.SecureRandom(key))

	aead, err := primitives.NewAEAD(key)
	require.NoError(t, err)

	prefix := make([]byte, primitives.NoncePrefixSize)
	require.NoError(t, primitives.SecureRandom(prefix))

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	aad := []byte("chunk-associated-data")

	nonce := primitives.ChunkNonce(prefix, 7)
	ciphertext, err := aead.Seal(nonce, plaintext, aad)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	got, err := aead.Open(nonce, ciphertext, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestAEADOpenRejectsTampering(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	require.NoError(t, primitives.SecureRandom(key))
	aead, err := primitives.NewAEAD(key)
	require.NoError(t, err)

	prefix := make([]byte, primitives.NoncePrefixSize)
	nonce := primitives.ChunkNonce(prefix, 0)
	ciphertext, err := aead.Seal(nonce, []byte("payload"), nil)
	require.NoError(t, err)

	ciphertext[0] ^= 0xFF
	_, err = aead.Open(nonce, ciphertext, nil)
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrAeadFailure))
}

func TestChunkNonceDeterministicPerIndex(t *testing.T) {
	prefix := make([]byte, primitives.NoncePrefixSize)
	for i := range prefix {
		prefix[i] = byte(i + 1)
	}

	n0 := primitives.ChunkNonce(prefix, 0)
	n1 := primitives.ChunkNonce(prefix, 1)
	n0Again := primitives.ChunkNonce(prefix, 0)

	require.Len(t, n0, constants.AEADNonceSize)
	require.NotEqual(t, n0, n1)
	require.Equal(t, n0, n0Again)
}

func TestNewAEADRejectsWrongKeyLength(t *testing.T) {
	_, err := primitives.NewAEAD(make([]byte, 16))
	require.Error(t, err)
}
