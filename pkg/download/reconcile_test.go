package download

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/pkg/primitives"
)

func sealedFixture(t *testing.T, plaintext []byte) (*primitives.AEAD, []byte, []byte) {
	t.Helper()
	key := make([]byte, constants.AEADKeySize)
	require.NoError(t, primitives.SecureRandom(key))
	aead, err := primitives.NewAEAD(key)
	require.NoError(t, err)
	nonce := make([]byte, constants.AEADNonceSize)
	ciphertext, err := aead.Seal(nonce, plaintext, nil)
	require.NoError(t, err)
	return aead, nonce, ciphertext
}

func TestReconcileExactLength(t *testing.T) {
	aead, nonce, ciphertext := sealedFixture(t, []byte("exact length payload"))
	got, err := reconcileAndDecrypt(ciphertext, int64(len(ciphertext)), int64(len(ciphertext)), aeadDecryptFunc(aead, nonce))
	require.NoError(t, err)
	require.Equal(t, []byte("exact length payload"), got)
}

func TestReconcileSmallTrailingSlack(t *testing.T) {
	aead, nonce, ciphertext := sealedFixture(t, []byte("payload with trailing junk"))
	withTrailer := append(append([]byte{}, ciphertext...), []byte{1, 2, 3, 4, 5, 6, 7}...)

	got, err := reconcileAndDecrypt(withTrailer, int64(len(ciphertext)), int64(len(withTrailer)), aeadDecryptFunc(aead, nonce))
	require.NoError(t, err)
	require.Equal(t, []byte("payload with trailing junk"), got)
}

func TestReconcileLargeTrailerFailsDeterministically(t *testing.T) {
	aead, nonce, ciphertext := sealedFixture(t, []byte("payload"))
	junk := make([]byte, 64)
	withTrailer := append(append([]byte{}, ciphertext...), junk...)

	_, err := reconcileAndDecrypt(withTrailer, int64(len(ciphertext)), int64(len(withTrailer)), aeadDecryptFunc(aead, nonce))
	require.Error(t, err)
}

func TestReconcileShortButMatchesReportedLength(t *testing.T) {
	aead, nonce, ciphertext := sealedFixture(t, []byte(""))
	got, err := reconcileAndDecrypt(ciphertext, int64(len(ciphertext)+5), int64(len(ciphertext)), aeadDecryptFunc(aead, nonce))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReconcileShortAndMismatchedIsSizeMismatch(t *testing.T) {
	_, _, ciphertext := sealedFixture(t, []byte("abc"))
	short := ciphertext[:len(ciphertext)-3]
	_, err := reconcileAndDecrypt(short, int64(len(ciphertext)), int64(len(ciphertext)), nil)
	require.Error(t, err)
}
