package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/pkg/primitives"
)

func TestEncryptDecryptFilenameRoundTrip(t *testing.T) {
	cek := make([]byte, constants.CEKSize)
	require.NoError(t, primitives.SecureRandom(cek))

	ciphertext, salt, err := primitives.EncryptFilename(cek, "quarterly-report.pdf")
	require.NoError(t, err)
	require.Len(t, salt, constants.FilenameSaltSize)
	require.NotContains(t, string(ciphertext), "quarterly-report.pdf")

	name, err := primitives.DecryptFilename(cek, ciphertext, salt)
	require.NoError(t, err)
	require.Equal(t, "quarterly-report.pdf", name)
}

func TestDecryptFilenameRejectsWrongCEK(t *testing.T) {
	cek := make([]byte, constants.CEKSize)
	require.NoError(t, primitives.SecureRandom(cek))
	other := make([]byte, constants.CEKSize)
	require.NoError(t, primitives.SecureRandom(other))

	ciphertext, salt, err := primitives.EncryptFilename(cek, "secret-name.txt")
	require.NoError(t, err)

	_, err = primitives.DecryptFilename(other, ciphertext, salt)
	require.Error(t, err)
}

func TestEncryptFilenameUsesFreshSaltEachCall(t *testing.T) {
	cek := make([]byte, constants.CEKSize)
	require.NoError(t, primitives.SecureRandom(cek))

	_, saltA, err := primitives.EncryptFilename(cek, "same-name.txt")
	require.NoError(t, err)
	_, saltB, err := primitives.EncryptFilename(cek, "same-name.txt")
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)
}
