package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/config"
	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/download"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/share"
	"github.com/filecore/transfer-core/pkg/upload"
)

// testHarness bundles everything one upload/download round trip needs: a
// backing store and server, a signer keypair for the manifest, and a
// single owner recipient wrapping the CEK under its own KEM keypair.
type testHarness struct {
	store  *mockStore
	server *mockServer

	owner     *kem.KeyPair
	signer    *manifest.SignerKeyPairs
	recipient upload.Recipient
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	store := newMockStore()
	server := newMockServer(store)

	owner, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	signer, err := manifest.GenerateSignerKeyPairs(rand.Reader)
	require.NoError(t, err)

	return &testHarness{
		store:  store,
		server: server,
		owner:  owner,
		signer: signer,
		recipient: upload.Recipient{
			KeyID:     "owner",
			PublicKey: owner.Public,
		},
	}
}

func (h *testHarness) uploadEngine() *upload.Engine {
	return upload.New(h.server, h.store, h.signer, nil)
}

func (h *testHarness) downloadEngine() *download.Engine {
	return download.New(h.server, h.store)
}

// roundTrip uploads plaintext and immediately downloads it back, returning
// the recovered plaintext and the committed manifest.
func (h *testHarness) roundTrip(t *testing.T, ctx context.Context, plaintext []byte, cfg config.Config) (download.Result, error) {
	t.Helper()

	up := h.uploadEngine()
	uploadResult, err := up.Run(ctx, upload.Request{
		Plaintext:  plaintext,
		MimeType:   "application/octet-stream",
		Recipients: []upload.Recipient{h.recipient},
		Filename:   "roundtrip-name.bin",
		Config:     cfg,
	})
	if err != nil {
		return download.Result{}, err
	}

	bundle, err := h.server.GetDownloadBundle(ctx, uploadResult.FileID)
	require.NoError(t, err)

	wrapper := share.NewKEMWrapper()
	cek, err := wrapper.UnwrapAs(bundle.Wrapping, h.owner.Private)
	require.NoError(t, err)

	down := h.downloadEngine()
	return down.Run(ctx, download.Request{
		FileID:        uploadResult.FileID,
		CEK:           cek,
		Config:        cfg,
		TrustedSigner: h.trustedSigner(),
	})
}

// trustedSigner returns the published signing identity a download should
// verify the harness's manifests against.
func (h *testHarness) trustedSigner() manifest.TrustedSigner {
	return manifest.TrustedSignerFromKeys(h.signer)
}

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.ChunkSize = 16
	return cfg
}

// E2E-1: a file whose size is an exact multiple of the chunk size round
// trips byte for byte (Testable Property 1).
func TestE2EExactChunkBoundary(t *testing.T) {
	h := newHarness(t)
	plaintext := bytes.Repeat([]byte{0xAB}, 16*4)

	ctx := context.Background()
	result, err := h.roundTrip(t, ctx, plaintext, smallConfig())
	require.NoError(t, err)
	require.Equal(t, plaintext, result.Plaintext)
	require.Len(t, result.Manifest.Chunks, 4)
	require.Equal(t, "roundtrip-name.bin", result.Filename)
}

// E2E-2: an off-boundary size still round trips, and the chunk count
// matches the ceiling division (Testable Property 2).
func TestE2EOffBoundarySize(t *testing.T) {
	h := newHarness(t)
	plaintext := make([]byte, 16*3+5)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	ctx := context.Background()
	result, err := h.roundTrip(t, ctx, plaintext, smallConfig())
	require.NoError(t, err)
	require.Equal(t, plaintext, result.Plaintext)
	require.Len(t, result.Manifest.Chunks, 4)
}

// E2E-6: an empty file still produces one zero-length chunk and round
// trips to an empty plaintext.
func TestE2EEmptyFile(t *testing.T) {
	h := newHarness(t)

	ctx := context.Background()
	result, err := h.roundTrip(t, ctx, nil, smallConfig())
	require.NoError(t, err)
	require.Empty(t, result.Plaintext)
	require.Len(t, result.Manifest.Chunks, 1)
}

// Testable Property 3: per-chunk nonces are unique across the manifest.
func TestE2ENoncesAreUniquePerChunk(t *testing.T) {
	h := newHarness(t)
	plaintext := make([]byte, 16*6)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	ctx := context.Background()
	result, err := h.roundTrip(t, ctx, plaintext, smallConfig())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range result.Manifest.Chunks {
		key := string(c.Nonce)
		require.False(t, seen[key], "nonce reused across chunks")
		seen[key] = true
	}
}

// Testable Property 4 / E2E-3: a share recipient with an independent KEM
// keypair can unwrap the CEK and recover the same plaintext as the owner.
func TestE2EShareRecipientRoundTrip(t *testing.T) {
	h := newHarness(t)
	plaintext := []byte("shared secret contents, a bit longer than one chunk of data")

	recipientKeys, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	up := h.uploadEngine()
	ctx := context.Background()
	uploadResult, err := up.Run(ctx, upload.Request{
		Plaintext: plaintext,
		MimeType:  "application/octet-stream",
		Recipients: []upload.Recipient{
			h.recipient,
			{KeyID: "friend", PublicKey: recipientKeys.Public},
		},
		Filename: "test-name.bin",
		Config:   smallConfig(),
	})
	require.NoError(t, err)
	require.Len(t, uploadResult.Manifest.Signatures, 2)

	wrappings := h.server.wrappingsFor(uploadResult.FileID)
	require.Len(t, wrappings, 2)

	wrapper := share.NewKEMWrapper()
	ownerCEK, err := wrapper.UnwrapAs(wrappings[0], h.owner.Private)
	require.NoError(t, err)
	require.Len(t, ownerCEK, constants.CEKSize)

	friendCEK, err := wrapper.UnwrapAs(wrappings[1], recipientKeys.Private)
	require.NoError(t, err)
	require.Equal(t, ownerCEK, friendCEK)

	down := h.downloadEngine()
	result, err := down.Run(ctx, download.Request{
		FileID:        uploadResult.FileID,
		CEK:           friendCEK,
		Config:        smallConfig(),
		TrustedSigner: h.trustedSigner(),
	})
	require.NoError(t, err)
	require.Equal(t, plaintext, result.Plaintext)
}

// TestE2EShareLifecycleTransitionsMonotonically exercises CreateShare,
// AcceptShare, and RemoveShare against the ServerAPI, proving the server
// rejects a transition the status doesn't allow (§3's monotonic lifecycle)
// rather than silently overwriting it.
func TestE2EShareLifecycleTransitionsMonotonically(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sh, err := h.server.CreateShare(ctx, "file-1", manifest.ItemTypeFile, "friend", manifest.WrappingRecord{})
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusPending, sh.Status)

	accepted, err := h.server.AcceptShare(ctx, sh.ShareID)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusAccepted, accepted.Status)

	// Declining an already-accepted share is not a legal transition.
	_, err = h.server.DeclineShare(ctx, sh.ShareID)
	require.Error(t, err)

	got, err := h.server.GetShare(ctx, sh.ShareID)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusAccepted, got.Status, "rejected transition must not have mutated server state")

	require.NoError(t, h.server.RemoveShare(ctx, sh.ShareID))
	got, err = h.server.GetShare(ctx, sh.ShareID)
	require.NoError(t, err)
	require.Equal(t, manifest.ShareStatusRemoved, got.Status)

	// Removed is terminal: nothing may advance it further.
	_, err = h.server.AcceptShare(ctx, sh.ShareID)
	require.Error(t, err)
}

// E2E-4 / Testable Property 6: an object store that appends a small
// trailer to every stored object (e.g. a checksum footer) does not break
// the download, since the size-reconciliation slack tolerates it.
func TestE2ESmallTrailerReconciles(t *testing.T) {
	h := newHarness(t)
	h.store.appendTrailer = []byte{0xDE, 0xAD, 0xBE}

	plaintext := bytes.Repeat([]byte{0x42}, 16*3+1)
	ctx := context.Background()
	result, err := h.roundTrip(t, ctx, plaintext, smallConfig())
	require.NoError(t, err)
	require.Equal(t, plaintext, result.Plaintext)
}

// Testable Property 8: a bit flip in stored ciphertext surfaces as an
// AEAD authentication failure scoped to the corrupted chunk.
func TestE2ECorruptedChunkFailsIntegrity(t *testing.T) {
	h := newHarness(t)
	var flippedOnce bool
	h.store.corrupt = func(_ string, body []byte) []byte {
		if flippedOnce || len(body) == 0 {
			return body
		}
		flippedOnce = true
		corrupted := append([]byte{}, body...)
		corrupted[0] ^= 0xFF
		return corrupted
	}

	plaintext := bytes.Repeat([]byte{0x11}, 16*3)
	ctx := context.Background()
	_, err := h.roundTrip(t, ctx, plaintext, smallConfig())
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrAeadFailure))
}

// Testable Property 9: a tampered manifest signature (flipping a single
// byte of the post-quantum signature) is rejected by Verify, exercising
// the double-signature tie-break rule.
func TestManifestSignatureTieBreakRejectsSingleValid(t *testing.T) {
	h := newHarness(t)
	plaintext := []byte("manifest under test")

	up := h.uploadEngine()
	ctx := context.Background()
	uploadResult, err := up.Run(ctx, upload.Request{
		Plaintext:  plaintext,
		MimeType:   "text/plain",
		Recipients: []upload.Recipient{h.recipient},
		Filename:   "test-name.bin",
		Config:     smallConfig(),
	})
	require.NoError(t, err)

	tampered := uploadResult.Manifest
	tampered.Signatures = append([]manifest.Signature{}, tampered.Signatures...)
	for i := range tampered.Signatures {
		if tampered.Signatures[i].Algorithm == constants.SignatureMLDSA65 {
			corrupted := append([]byte{}, tampered.Signatures[i].Value...)
			corrupted[0] ^= 0xFF
			tampered.Signatures[i].Value = corrupted
		}
	}

	err = manifest.Verify(tampered, h.trustedSigner())
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrSignatureFailure))
}

// Testable Property 5 / E2E-5: the KEM length-reconciliation rule applies
// end to end when a wrapping record's ciphertext has been doubled on the
// wire (a known hex-double encoding artifact).
func TestE2EKemCiphertextDoubleLengthReconciles(t *testing.T) {
	h := newHarness(t)
	plaintext := []byte("content behind a doubled kem ciphertext")

	up := h.uploadEngine()
	ctx := context.Background()
	uploadResult, err := up.Run(ctx, upload.Request{
		Plaintext:  plaintext,
		MimeType:   "text/plain",
		Recipients: []upload.Recipient{h.recipient},
		Filename:   "test-name.bin",
		Config:     smallConfig(),
	})
	require.NoError(t, err)

	bundle, err := h.server.GetDownloadBundle(ctx, uploadResult.FileID)
	require.NoError(t, err)

	doubled := bundle.Wrapping
	doubled.KEMCiphertext = append(append([]byte{}, doubled.KEMCiphertext...), doubled.KEMCiphertext...)

	wrapper := share.NewKEMWrapper()
	cek, err := wrapper.UnwrapAs(doubled, h.owner.Private)
	require.NoError(t, err)

	down := h.downloadEngine()
	result, err := down.Run(ctx, download.Request{
		FileID:        uploadResult.FileID,
		CEK:           cek,
		Config:        smallConfig(),
		TrustedSigner: h.trustedSigner(),
	})
	require.NoError(t, err)
	require.Equal(t, plaintext, result.Plaintext)
}

// Testable Property 10: the download state machine ends in Complete on a
// successful run and never reports a non-terminal state afterward.
func TestE2EDownloadEngineReachesCompleteState(t *testing.T) {
	h := newHarness(t)
	plaintext := bytes.Repeat([]byte{0x07}, 16*2)

	ctx := context.Background()
	up := h.uploadEngine()
	uploadResult, err := up.Run(ctx, upload.Request{
		Plaintext:  plaintext,
		MimeType:   "application/octet-stream",
		Recipients: []upload.Recipient{h.recipient},
		Filename:   "test-name.bin",
		Config:     smallConfig(),
	})
	require.NoError(t, err)

	bundle, err := h.server.GetDownloadBundle(ctx, uploadResult.FileID)
	require.NoError(t, err)
	wrapper := share.NewKEMWrapper()
	cek, err := wrapper.UnwrapAs(bundle.Wrapping, h.owner.Private)
	require.NoError(t, err)

	down := h.downloadEngine()
	_, err = down.Run(ctx, download.Request{FileID: uploadResult.FileID, CEK: cek, Config: smallConfig(), TrustedSigner: h.trustedSigner()})
	require.NoError(t, err)
	require.Equal(t, download.StateComplete, down.State())
	require.True(t, down.State().Terminal())
}

// primitives.Zeroize is exercised here only to confirm it does not panic
// on a freshly-allocated buffer shared across a round trip's CEK handling.
func TestZeroizeIsSafeOnRoundTripCEK(t *testing.T) {
	key := make([]byte, constants.CEKSize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	primitives.Zeroize(key)
	require.Equal(t, make([]byte, constants.CEKSize), key)
}
