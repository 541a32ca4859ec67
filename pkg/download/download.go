// Package download implements the download engine (C7): a two-stage
// pipeline that overlaps presigned-URL fetches with AEAD decryption,
// optional decompression, and per-chunk hash verification, emitting
// plaintext strictly in chunk-index order while allowing fetch and
// decrypt to complete out of order.
package download

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/filecore/transfer-core/internal/config"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/chunker"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/metrics"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/transfer"
)

// Request is the input contract for Run (§4.7).
type Request struct {
	FileID string
	CEK    []byte
	Config config.Config

	// TrustedSigner is the file owner's published signing identity,
	// obtained out of band (e.g. via the keyring's TrustedSigner method).
	// The manifest's dual signature is verified against it, not against
	// whatever public key the signature itself claims.
	TrustedSigner manifest.TrustedSigner

	Progress transfer.ProgressSink
	Cancel   transfer.CancelSignal
	Pause    transfer.PauseController
}

// Result is the output contract for Run: the reassembled plaintext and
// the verified manifest. Filename is the decrypted name when the manifest
// carries a ciphertext filename, recovered from the CEK rather than the
// keyring's master key so a share recipient can read it too.
type Result struct {
	Plaintext []byte
	Filename  string
	Manifest  manifest.Manifest
}

// Engine drives the download pipeline against a ServerAPI and ObjectStore.
type Engine struct {
	Server transfer.ServerAPI
	Store  transfer.ObjectStore

	// Observer records metrics, traces, and logs for each chunk. When nil,
	// Run uses an observer over the global collector, tracer, and logger
	// labelled with the request's FileID and Direction "download".
	Observer *metrics.TransferObserver

	// Throttle smooths the GET request rate against the object store.
	// When nil, Run builds one from the config's ObjectStoreRPS and
	// ObjectStoreBurst (unthrottled when ObjectStoreRPS is 0).
	Throttle *metrics.ObjectStoreThrottle

	mu    sync.Mutex
	state State
}

// New constructs a download Engine.
func New(server transfer.ServerAPI, store transfer.ObjectStore) *Engine {
	return &Engine{
		Server:   server,
		Store:    store,
		state:    StateInitializing,
		Throttle: metrics.NewObjectStoreThrottle(0, 0, nil, nil),
	}
}

// State returns the engine's current pipeline state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

type fetchedChunk struct {
	index     int
	body      []byte
	reportedN int64
}

type decryptedChunk struct {
	index     int
	plaintext []byte
}

// Run executes the full download algorithm.
func (e *Engine) Run(ctx context.Context, req Request) (result Result, err error) {
	observer := e.Observer
	if observer == nil {
		observer = metrics.NewTransferObserver(metrics.TransferObserverConfig{FileID: req.FileID, Direction: "download"})
	}
	observer.OnDownloadStart()
	defer func() { observer.OnDownloadEnd(err) }()

	e.setState(StateInitializing)

	bundle, err := e.Server.GetDownloadBundle(ctx, req.FileID)
	if err != nil {
		e.setState(StateFailed)
		return Result{}, xerrors.New("download.init", xerrors.ErrNetworkFailure, err)
	}

	if err := manifest.Verify(bundle.Manifest, req.TrustedSigner); err != nil {
		e.setState(StateFailed)
		return Result{}, err
	}

	cfg, err := req.Config.Normalize()
	if err != nil {
		e.setState(StateFailed)
		return Result{}, xerrors.New("download.init", xerrors.ErrInternal, err)
	}
	if e.Throttle == nil {
		e.Throttle = metrics.NewObjectStoreThrottle(cfg.ObjectStoreRPS, cfg.ObjectStoreBurst, nil, nil)
	}

	aead, err := primitives.NewAEAD(req.CEK)
	if err != nil {
		e.setState(StateFailed)
		return Result{}, xerrors.New("download.init", xerrors.ErrAeadFailure, err)
	}

	chunks := bundle.Manifest.Chunks
	plaintexts := make([][]byte, len(chunks))

	e.setState(StateDownloading)

	if err := e.runPipeline(ctx, req, cfg, bundle, aead, chunks, plaintexts, observer); err != nil {
		e.setState(errStateOf(err))
		return Result{}, err
	}

	e.setState(StateAssembling)
	total := int64(0)
	for _, p := range plaintexts {
		total += int64(len(p))
	}
	assembled := make([]byte, 0, total)
	for _, p := range plaintexts {
		assembled = append(assembled, p...)
	}

	e.setState(StateVerifying)
	wholeHash := primitives.WholeFileHash(bundle.Manifest.WholeFileHashAlgo, assembled)
	if wholeHash != bundle.Manifest.WholeFileHash {
		primitives.Zeroize(assembled)
		e.setState(StateFailed)
		observer.OnIntegrityFailure("whole_file")
		return Result{}, xerrors.New("download.verify", xerrors.ErrIntegrityFailure, xerrors.ErrIntegrityFailure)
	}

	var filename string
	if len(bundle.Manifest.CiphertextFilename) > 0 {
		filename, err = primitives.DecryptFilename(req.CEK, bundle.Manifest.CiphertextFilename, bundle.Manifest.FilenameSalt)
		if err != nil {
			primitives.Zeroize(assembled)
			e.setState(StateFailed)
			return Result{}, xerrors.New("download.decrypt_filename", xerrors.ErrAeadFailure, err)
		}
	}

	if req.Progress != nil {
		req.Progress.OnComplete()
	}
	e.setState(StateComplete)
	return Result{Plaintext: assembled, Filename: filename, Manifest: bundle.Manifest}, nil
}

func errStateOf(err error) State {
	if xerrors.Is(err, xerrors.ErrCancelled) {
		return StateCancelled
	}
	return StateFailed
}

// runPipeline implements the two-stage overlapped fetch/decrypt pipeline
// (§4.7) with in-order emission and throttled progress reporting.
func (e *Engine) runPipeline(ctx context.Context, req Request, cfg config.Config, bundle transfer.DownloadBundle, aead *primitives.AEAD, chunks []manifest.Chunk, plaintexts [][]byte, observer *metrics.TransferObserver) error {
	if len(chunks) == 0 {
		return nil
	}

	fetched := make(chan fetchedChunk, cfg.DownloadConcurrency)
	decrypted := make(chan decryptedChunk, cfg.DownloadConcurrency)
	errs := make(chan error, len(chunks))

	ctx, cancelPipeline := context.WithCancel(ctx)
	defer cancelPipeline()

	if req.Cancel != nil {
		go func() {
			select {
			case <-req.Cancel.Done():
				cancelPipeline()
			case <-ctx.Done():
			}
		}()
	}

	sem := semaphore.NewWeighted(int64(cfg.DownloadConcurrency))
	var fetchWG sync.WaitGroup

	// Stage A: bounded concurrent fetches.
	for _, c := range chunks {
		c := c
		getURL, ok := bundle.GetURLs[c.Index]
		if !ok {
			errs <- xerrors.NewChunk("download.fetch", c.Index, xerrors.ErrInternal, xerrors.ErrInternal)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		fetchWG.Add(1)
		go func() {
			defer fetchWG.Done()
			defer sem.Release(1)

			if req.Pause != nil {
				if err := req.Pause.Wait(ctx); err != nil {
					errs <- err
					return
				}
			}

			if err := e.Throttle.Wait(ctx, "get"); err != nil {
				errs <- xerrors.NewChunk("download.fetch", c.Index, xerrors.ErrCancelled, err)
				return
			}

			_, endFetch := observer.OnChunkFetch(ctx, c.Index)
			body, contentLength, err := e.Store.Get(ctx, getURL)
			endFetch(len(body), err)
			if err != nil {
				errs <- xerrors.NewChunk("download.fetch", c.Index, xerrors.ErrNetworkFailure, err)
				return
			}
			select {
			case fetched <- fetchedChunk{index: c.Index, body: body, reportedN: contentLength}:
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		fetchWG.Wait()
		close(fetched)
	}()

	// Stage B: CPU decrypt/decompress/verify, one goroutine per fetched
	// buffer; decryption and hashing are non-suspending so no extra
	// bounding is needed beyond the fetch semaphore already applied.
	var decryptWG sync.WaitGroup
	for f := range fetched {
		f := f
		decryptWG.Add(1)
		go func() {
			defer decryptWG.Done()
			_, endDecrypt := observer.OnChunkDecrypt(ctx, f.index)
			plaintext, err := e.decryptOne(chunks[f.index], aead, f)
			endDecrypt(err)
			if err != nil {
				if xerrors.Is(err, xerrors.ErrIntegrityFailure) {
					observer.OnIntegrityFailure("chunk")
				}
				errs <- err
				return
			}
			select {
			case decrypted <- decryptedChunk{index: f.index, plaintext: plaintext}:
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		decryptWG.Wait()
		close(decrypted)
	}()

	// In-order emission into plaintexts, with throttled progress.
	var doneBytes int64
	totalBytes := bundle.Manifest.TotalSize
	lastEmit := time.Time{}
	minInterval := time.Duration(cfg.ProgressMinIntervalMs) * time.Millisecond

	pending := make(map[int][]byte)
	nextIndex := 0

	for d := range decrypted {
		pending[d.index] = d.plaintext
		for {
			p, ok := pending[nextIndex]
			if !ok {
				break
			}
			plaintexts[nextIndex] = p
			delete(pending, nextIndex)
			atomic.AddInt64(&doneBytes, int64(len(p)))
			nextIndex++

			if req.Progress != nil && (time.Since(lastEmit) >= minInterval || nextIndex == len(chunks)) {
				req.Progress.OnProgress(atomic.LoadInt64(&doneBytes), totalBytes)
				lastEmit = time.Now()
			}
		}
	}

	if ctx.Err() != nil {
		for _, p := range plaintexts {
			primitives.Zeroize(p)
		}
		return xerrors.New("download.pipeline", xerrors.ErrCancelled, ctx.Err())
	}

	select {
	case err := <-errs:
		for _, p := range plaintexts {
			primitives.Zeroize(p)
		}
		return err
	default:
	}

	if nextIndex != len(chunks) {
		return xerrors.New("download.pipeline", xerrors.ErrInternal, xerrors.ErrInternal)
	}
	return nil
}

func (e *Engine) decryptOne(c manifest.Chunk, aead *primitives.AEAD, f fetchedChunk) ([]byte, error) {
	decrypt := aeadDecryptFunc(aead, c.Nonce)
	plaintext, err := reconcileAndDecrypt(f.body, c.CiphertextSize, f.reportedN, decrypt)
	if err != nil {
		return nil, xerrors.NewChunk("download.decrypt", c.Index, xerrors.ErrAeadFailure, err)
	}

	if c.Compression != nil && c.Compression.Algorithm != 0 {
		decompressed, err := chunker.Decompress(c.Compression.Algorithm, plaintext)
		if err != nil {
			return nil, xerrors.NewChunk("download.decompress", c.Index, xerrors.ErrMalformedEncoding, err)
		}
		plaintext = decompressed
	}

	if len(c.ContentHash) > 0 {
		got := primitives.SumBLAKE3(plaintext)
		if !primitives.ConstantTimeEqual(got, c.ContentHash) {
			return nil, xerrors.NewChunk("download.verify_chunk", c.Index, xerrors.ErrIntegrityFailure, xerrors.ErrIntegrityFailure)
		}
	}

	return plaintext, nil
}
