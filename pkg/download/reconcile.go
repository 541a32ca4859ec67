package download

import (
	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/primitives"
)

// decryptFunc attempts AEAD decryption of a candidate-length buffer, with
// the nonce and associated data already bound (see aeadDecryptFunc), so
// reconcileAndDecrypt only deals in candidate lengths.
type decryptFunc func(candidate []byte) ([]byte, error)

// reconcileAndDecrypt applies §4.7's size-reconciliation rule to a fetched
// buffer of possibly-wrong length against the manifest-recorded expected
// length, then decrypts. The object store may append trailing bytes (most
// commonly a checksum); rarely it may return a short buffer.
//
//   - len(received) == expected: decrypt directly.
//   - len(received) > expected, diff <= 32: truncate to expected, decrypt.
//   - len(received) > expected, diff > 32: try the full buffer first, then
//     sweep successive truncations at offsets 0..min(32, diff) until one
//     decrypts or all are exhausted.
//   - len(received) < expected but equals reportedContentLength: accept
//     the short buffer as-is (the object actually is shorter).
//   - otherwise: SizeMismatch.
func reconcileAndDecrypt(received []byte, expected int64, reportedContentLength int64, decrypt decryptFunc) ([]byte, error) {
	n := int64(len(received))

	switch {
	case n == expected:
		return decrypt(received)

	case n > expected:
		diff := n - expected
		if diff <= constants.MaxSizeReconciliationSlack {
			return decrypt(received[:expected])
		}

		if plaintext, err := decrypt(received); err == nil {
			return plaintext, nil
		}

		maxOffset := diff
		if maxOffset > constants.MaxSizeReconciliationSlack {
			maxOffset = constants.MaxSizeReconciliationSlack
		}
		for offset := int64(1); offset <= maxOffset; offset++ {
			candidateLen := n - offset
			if plaintext, err := decrypt(received[:candidateLen]); err == nil {
				return plaintext, nil
			}
		}
		return nil, xerrors.New("download.reconcile", xerrors.ErrAeadFailure, xerrors.ErrAeadFailure)

	case n < expected:
		if n == reportedContentLength {
			return decrypt(received)
		}
		return nil, xerrors.New("download.reconcile", xerrors.ErrSizeMismatch, xerrors.ErrSizeMismatch)

	default:
		return decrypt(received)
	}
}

// aeadDecryptFunc adapts a primitives.AEAD bound to a nonce and
// associated data into a decryptFunc for reconcileAndDecrypt.
func aeadDecryptFunc(aead *primitives.AEAD, nonce []byte) decryptFunc {
	return func(candidate []byte) ([]byte, error) {
		return aead.Open(nonce, candidate, nil)
	}
}
