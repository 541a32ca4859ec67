// filename.go implements filename/foldername encryption (§4.2): the
// ciphertext name and salt a manifest carries are opaque to anyone but a
// holder of the file's CEK, so a recipient who only ever receives a
// re-wrapped CEK (never the owner's master key) can still recover the
// plaintext name.
package primitives

import (
	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
)

// filenameAssociatedData binds the filename ciphertext to its purpose so
// it cannot be swapped for a chunk ciphertext encrypted under a
// derived key of the same length.
var filenameAssociatedData = []byte("filecore-v1-filename")

// EncryptFilename derives a per-file key from cek and a fresh random salt
// via HKDF (domain-separated from the master key and the CEK-wrap key by
// constants.DomainFilenameKey) and seals name under it. The returned salt
// must travel alongside the ciphertext in the manifest; it is not secret.
func EncryptFilename(cek []byte, name string) (ciphertext, salt []byte, err error) {
	salt, err = SecureRandomBytes(constants.FilenameSaltSize)
	if err != nil {
		return nil, nil, xerrors.New("primitives.encrypt_filename", xerrors.ErrInternal, err)
	}
	key, err := DeriveKey(cek, salt, constants.DomainFilenameKey, constants.AEADKeySize)
	if err != nil {
		return nil, nil, xerrors.New("primitives.encrypt_filename", xerrors.ErrAeadFailure, err)
	}
	aead, err := NewAEAD(key)
	if err != nil {
		return nil, nil, xerrors.New("primitives.encrypt_filename", xerrors.ErrAeadFailure, err)
	}
	nonce := make([]byte, constants.AEADNonceSize)
	ciphertext, err = aead.Seal(nonce, []byte(name), filenameAssociatedData)
	if err != nil {
		return nil, nil, xerrors.New("primitives.encrypt_filename", xerrors.ErrAeadFailure, err)
	}
	return ciphertext, salt, nil
}

// DecryptFilename re-derives the key EncryptFilename used from cek and
// salt and recovers the plaintext name.
func DecryptFilename(cek, ciphertext, salt []byte) (string, error) {
	key, err := DeriveKey(cek, salt, constants.DomainFilenameKey, constants.AEADKeySize)
	if err != nil {
		return "", xerrors.New("primitives.decrypt_filename", xerrors.ErrAeadFailure, err)
	}
	aead, err := NewAEAD(key)
	if err != nil {
		return "", xerrors.New("primitives.decrypt_filename", xerrors.ErrAeadFailure, err)
	}
	nonce := make([]byte, constants.AEADNonceSize)
	plaintext, err := aead.Open(nonce, ciphertext, filenameAssociatedData)
	if err != nil {
		return "", xerrors.New("primitives.decrypt_filename", xerrors.ErrAeadFailure, err)
	}
	return string(plaintext), nil
}
