// Package upload implements the upload engine (C6): draws a fresh CEK,
// compresses and encrypts each chunk, PUTs ciphertext to presigned URLs
// under bounded concurrency, wraps the CEK for the owner (and any initial
// co-recipients), and commits a signed manifest.
package upload

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/filecore/transfer-core/internal/config"
	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/chunker"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/metrics"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/share"
	"github.com/filecore/transfer-core/pkg/transfer"
)

// Recipient identifies a party the freshly-generated CEK must be wrapped
// for at commit time: the owner is always included as a recipient.
type Recipient struct {
	KeyID     string
	PublicKey *kem.PublicKey
}

// Request is the input contract for Run (§4.6).
type Request struct {
	Plaintext      []byte
	MimeType       string
	ParentFolderID string
	Recipients     []Recipient

	// Filename is the plaintext name, encrypted under a key derived from
	// the upload's freshly-generated CEK (never the keyring's master key)
	// before the manifest is built, so any recipient of a re-wrapped CEK
	// can recover it. Empty means no filename is carried.
	Filename string

	Config config.Config
}

// Result is the output contract for Run: a committed file id and the
// signed manifest that accompanied it.
type Result struct {
	FileID   string
	Manifest manifest.Manifest
}

// Engine drives the upload algorithm against a ServerAPI and ObjectStore.
type Engine struct {
	Server     transfer.ServerAPI
	Store      transfer.ObjectStore
	SignerKeys *manifest.SignerKeyPairs
	CekWrapper share.CekWrapper
	Progress   transfer.ProgressSink
	HashAlgo   constants.HashAlgorithm

	// Observer records metrics, traces, and logs for each chunk. When nil,
	// Run uses an observer over the global collector, tracer, and logger
	// with Direction "upload".
	Observer *metrics.TransferObserver

	// Throttle smooths the PUT request rate against the object store.
	// When nil, Run builds one from the config's ObjectStoreRPS and
	// ObjectStoreBurst (unthrottled when ObjectStoreRPS is 0).
	Throttle *metrics.ObjectStoreThrottle
}

// New constructs an upload Engine. progress may be nil to disable
// reporting.
func New(server transfer.ServerAPI, store transfer.ObjectStore, signerKeys *manifest.SignerKeyPairs, progress transfer.ProgressSink) *Engine {
	return &Engine{
		Server:     server,
		Store:      store,
		SignerKeys: signerKeys,
		CekWrapper: share.NewKEMWrapper(),
		Progress:   progress,
		HashAlgo:   constants.HashSHA256,
		Throttle:   metrics.NewObjectStoreThrottle(0, 0, nil, nil),
	}
}

// Run executes the full upload algorithm (§4.6 steps 1-5).
func (e *Engine) Run(ctx context.Context, req Request) (result Result, err error) {
	cfg, err := req.Config.Normalize()
	if err != nil {
		return Result{}, xerrors.New("upload.run", xerrors.ErrInternal, err)
	}
	if len(req.Recipients) == 0 {
		return Result{}, xerrors.New("upload.run", xerrors.ErrInternal, xerrors.ErrInternal)
	}
	if e.Throttle == nil {
		e.Throttle = metrics.NewObjectStoreThrottle(cfg.ObjectStoreRPS, cfg.ObjectStoreBurst, nil, nil)
	}
	observer := e.Observer
	if observer == nil {
		observer = metrics.NewTransferObserver(metrics.TransferObserverConfig{Direction: "upload"})
	}

	observer.OnUploadStart()
	defer func() { observer.OnUploadEnd(err) }()

	// Step 1: fresh CEK and nonce prefix.
	cek := make([]byte, constants.CEKSize)
	if err := primitives.SecureRandom(cek); err != nil {
		return Result{}, xerrors.New("upload.run", xerrors.ErrInternal, err)
	}
	defer primitives.Zeroize(cek)

	noncePrefix := make([]byte, primitives.NoncePrefixSize)
	if err := primitives.SecureRandom(noncePrefix); err != nil {
		return Result{}, xerrors.New("upload.run", xerrors.ErrInternal, err)
	}

	// Every chunk nonce is prefix || index as a little-endian uint32
	// (primitives.ChunkNonce), so a file needing more chunks than a
	// uint32 can index would alias nonces under the same CEK. Refuse
	// before splitting the plaintext, let alone starting any work.
	if chunker.ChunkCount(int64(len(req.Plaintext)), cfg.ChunkSize) > math.MaxUint32 {
		return Result{}, xerrors.New("upload.run", xerrors.ErrInternal, xerrors.ErrInternal)
	}
	plainChunks := chunker.Split(req.Plaintext, cfg.ChunkSize)

	// Step 2: acquire presigned PUT URLs.
	init, err := e.Server.InitUpload(ctx, req.ParentFolderID, req.MimeType, len(plainChunks))
	if err != nil {
		return Result{}, xerrors.New("upload.init", xerrors.ErrNetworkFailure, err)
	}
	urlByIndex := make(map[int]transfer.PresignedUpload, len(init.Uploads))
	for _, u := range init.Uploads {
		urlByIndex[u.ChunkIndex] = u
	}

	aead, err := primitives.NewAEAD(cek)
	if err != nil {
		return Result{}, xerrors.New("upload.run", xerrors.ErrAeadFailure, err)
	}

	// Step 3-4: per-chunk worker task under bounded concurrency.
	manifestChunks := make([]manifest.Chunk, len(plainChunks))
	sem := semaphore.NewWeighted(int64(cfg.UploadConcurrency))
	group, gctx := errgroup.WithContext(ctx)

	var progressMu sync.Mutex
	var doneBytes int64
	var lastEmit time.Time
	totalBytes := int64(len(req.Plaintext))
	minInterval := time.Duration(cfg.ProgressMinIntervalMs) * time.Millisecond

	for _, pc := range plainChunks {
		pc := pc
		putInfo, ok := urlByIndex[pc.Index]
		if !ok {
			return Result{}, xerrors.NewChunk("upload.run", pc.Index, xerrors.ErrInternal, xerrors.ErrInternal)
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			mc, err := e.uploadOneChunk(gctx, cfg, aead, noncePrefix, pc, req.MimeType, putInfo, observer)
			if err != nil {
				return err
			}
			manifestChunks[pc.Index] = mc
			progressMu.Lock()
			doneBytes += mc.PlaintextSize
			if e.Progress != nil && (time.Since(lastEmit) >= minInterval || doneBytes == totalBytes) {
				e.Progress.OnProgress(doneBytes, totalBytes)
				lastEmit = time.Now()
			}
			progressMu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		// Best-effort abort: the server drops the pending upload and the
		// CEK is zeroed via the deferred Zeroize above regardless of
		// whether the abort call itself succeeds.
		abortCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = e.Server.AbortUpload(abortCtx, init.UploadID)
		cancel()

		if e.Progress != nil {
			e.Progress.OnFailed(err)
		}
		return Result{}, err
	}

	// Step 5: wrap CEK for each recipient, build and sign manifest. The
	// file id is minted here, before signing, so the signature covers the
	// id the server will be told to commit under: a server-assigned id
	// patched in after the fact would invalidate both signatures without
	// anyone noticing, since Verify recomputes Canonical() from whatever
	// FileID the manifest currently carries.
	wholeHash := primitives.WholeFileHash(e.HashAlgo, req.Plaintext)
	fileID := uuid.NewString()

	var ciphertextFilename, filenameSalt []byte
	if req.Filename != "" {
		ciphertextFilename, filenameSalt, err = primitives.EncryptFilename(cek, req.Filename)
		if err != nil {
			return Result{}, xerrors.New("upload.encrypt_filename", xerrors.ErrAeadFailure, err)
		}
	}

	m, err := manifest.Build(
		fileID,
		ciphertextFilename,
		filenameSalt,
		req.MimeType,
		int64(len(req.Plaintext)),
		wholeHash,
		e.HashAlgo,
		manifestChunks,
		time.Unix(0, 0),
	)
	if err != nil {
		return Result{}, err
	}

	signed, err := manifest.Sign(m, e.SignerKeys)
	if err != nil {
		return Result{}, err
	}

	wrappingRecords := make([]manifest.WrappingRecord, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		record, err := e.CekWrapper.WrapFor(cek, r.KeyID, r.PublicKey)
		if err != nil {
			return Result{}, err
		}
		wrappingRecords = append(wrappingRecords, record)
	}

	committedID, err := e.Server.CommitUpload(ctx, signed, wrappingRecords)
	if err != nil {
		return Result{}, xerrors.New("upload.commit", xerrors.ErrNetworkFailure, err)
	}
	if committedID != fileID {
		return Result{}, xerrors.New("upload.commit", xerrors.ErrInvalidManifest, xerrors.ErrInvalidManifest)
	}

	if e.Progress != nil {
		e.Progress.OnComplete()
	}
	return Result{FileID: fileID, Manifest: signed}, nil
}

func (e *Engine) uploadOneChunk(ctx context.Context, cfg config.Config, aead *primitives.AEAD, noncePrefix []byte, pc chunker.Chunk, mimeType string, putInfo transfer.PresignedUpload, observer *metrics.TransferObserver) (manifest.Chunk, error) {
	plaintext := pc.Plaintext
	contentHash := primitives.SumBLAKE3(plaintext)

	var compression *manifest.CompressionDescriptor
	payload := plaintext
	if chunker.ShouldCompress(cfg.CompressionPolicy, mimeType, len(plaintext)) {
		compressed, err := chunker.Compress(chunker.DefaultAlgorithm, plaintext)
		if err == nil && len(compressed) < len(plaintext) {
			compression = &manifest.CompressionDescriptor{
				Algorithm:      chunker.DefaultAlgorithm,
				OriginalSize:   int64(len(plaintext)),
				CompressedSize: int64(len(compressed)),
			}
			payload = compressed
			observer.OnCompressionSavings(len(plaintext), len(compressed))
		}
	}

	nonce := primitives.ChunkNonce(noncePrefix, uint32(pc.Index))
	_, endEncrypt := observer.OnChunkEncrypt(ctx, pc.Index)
	ciphertext, err := aead.Seal(nonce, payload, nil)
	endEncrypt(err)
	if err != nil {
		return manifest.Chunk{}, xerrors.NewChunk("upload.encrypt", pc.Index, xerrors.ErrAeadFailure, err)
	}

	if err := e.putWithRetry(ctx, cfg.RetryMax, putInfo.PutURL, ciphertext, pc.Index, observer); err != nil {
		return manifest.Chunk{}, err
	}

	return manifest.Chunk{
		Index:          pc.Index,
		PlaintextSize:  int64(len(plaintext)),
		CiphertextSize: int64(len(ciphertext)),
		Nonce:          nonce,
		ContentHash:    contentHash,
		Compression:    compression,
		ObjectKey:      putInfo.ObjectKey,
	}, nil
}

func (e *Engine) putWithRetry(ctx context.Context, retryMax int, url string, body []byte, chunkIndex int, observer *metrics.TransferObserver) error {
	var lastErr error
	for attempt := 0; attempt <= retryMax; attempt++ {
		if attempt > 0 {
			observer.OnChunkRetry(chunkIndex)
			select {
			case <-ctx.Done():
				return xerrors.NewChunk("upload.put", chunkIndex, xerrors.ErrCancelled, ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		if err := e.Throttle.Wait(ctx, "put"); err != nil {
			return xerrors.NewChunk("upload.put", chunkIndex, xerrors.ErrCancelled, err)
		}

		_, endPut := observer.OnChunkPut(ctx, chunkIndex, len(body))
		_, err := e.Store.Put(ctx, url, body)
		endPut(err)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableStoreError(err) {
			return xerrors.NewChunk("upload.put", chunkIndex, xerrors.ErrStorageRejected, err)
		}
	}
	return xerrors.NewChunk("upload.put", chunkIndex, xerrors.ErrNetworkFailure, lastErr)
}

// isRetryableStoreError reports whether err represents a transient
// transport failure worth retrying, versus a fatal 4xx other than
// 408/429 (§4.6 edge cases). Only an error exposing a StatusCode() int
// method (found via xerrors.As) is classified by status code; anything
// else is treated as a transient network condition.
func isRetryableStoreError(err error) bool {
	var statusErr interface{ StatusCode() int }
	if xerrors.As(err, &statusErr) {
		code := statusErr.StatusCode()
		if code == 408 || code == 429 {
			return true
		}
		if code >= 400 && code < 500 {
			return false
		}
	}
	return true
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 200 * time.Millisecond
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
