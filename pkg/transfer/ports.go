// Package transfer defines the ports (§6, §9) through which the upload
// and download engines reach the server, the object store, and the
// caller's progress/cancellation/pause collaborators. Nothing in this
// package talks to a network; these are thin interfaces implemented
// elsewhere (by the real HTTP client, or by a test double).
package transfer

import (
	"context"

	"github.com/filecore/transfer-core/pkg/manifest"
)

// PresignedUpload pairs a projected chunk index with its presigned PUT URL
// and object-store key.
type PresignedUpload struct {
	ChunkIndex int
	PutURL     string
	ObjectKey  string
}

// UploadInit is the response to POST /upload/init.
type UploadInit struct {
	UploadID   string
	ChunkCount int
	Uploads    []PresignedUpload
}

// DownloadBundle is the response to GET /files/{id}/download.
type DownloadBundle struct {
	FileID     string
	StorageKey string
	Manifest   manifest.Manifest
	Wrapping   manifest.WrappingRecord
	GetURLs    map[int]string // chunkIndex -> presigned GET URL
	ObjectKeys map[int]string // chunkIndex -> object key
}

// ServerAPI is the core's view of the backing storage service (§6). All
// methods are context-bound so callers can cancel in-flight requests.
type ServerAPI interface {
	// InitUpload requests projectedChunks presigned PUT URLs for a new
	// upload under parentFolderID (empty for root).
	InitUpload(ctx context.Context, parentFolderID, mimeType string, projectedChunks int) (UploadInit, error)

	// RequestMoreUploadURLs extends an in-progress upload with URLs for
	// additional chunks, used when the source is a live stream whose size
	// was not known up front (§4.6 step 2).
	RequestMoreUploadURLs(ctx context.Context, uploadID string, additionalChunks int) ([]PresignedUpload, error)

	// CommitUpload submits the signed manifest and per-recipient wrapping
	// records, returning the committed file id.
	CommitUpload(ctx context.Context, signed manifest.Manifest, wrapping []manifest.WrappingRecord) (fileID string, err error)

	// AbortUpload best-effort notifies the server to drop a cancelled,
	// uncommitted upload.
	AbortUpload(ctx context.Context, uploadID string) error

	// GetDownloadBundle fetches the metadata and presigned GET URLs for
	// an existing file.
	GetDownloadBundle(ctx context.Context, fileID string) (DownloadBundle, error)

	// CreateShare issues a share of itemID to a recipient, carrying the
	// recipient's CEK wrapping record.
	CreateShare(ctx context.Context, itemID string, itemType manifest.ItemType, recipientID string, wrapping manifest.WrappingRecord) (manifest.Share, error)

	// AcceptShare, DeclineShare, RemoveShare transition a share's status.
	AcceptShare(ctx context.Context, shareID string) (manifest.Share, error)
	DeclineShare(ctx context.Context, shareID string) (manifest.Share, error)
	RemoveShare(ctx context.Context, shareID string) error

	// GetShare fetches a share's current state.
	GetShare(ctx context.Context, shareID string) (manifest.Share, error)
}

// ObjectStore is the plain HTTPS PUT/GET surface against presigned URLs
// (§6). Implementations must send requests without credentials.
type ObjectStore interface {
	Put(ctx context.Context, url string, body []byte) (etag string, err error)
	Get(ctx context.Context, url string) (body []byte, contentLength int64, err error)
}

// ProgressSink receives a monotonically non-decreasing byte count as a
// transfer proceeds (§5), throttled to at most once per
// Config.ProgressMinIntervalMs.
type ProgressSink interface {
	OnProgress(bytesDone, bytesTotal int64)
	OnComplete()
	OnFailed(err error)
}

// CancelSignal is a cooperative, idempotent cancellation source.
type CancelSignal interface {
	// Done returns a channel that is closed when cancellation is requested.
	Done() <-chan struct{}
}

// PauseController lets a transfer quiesce between chunks without tearing
// down in-flight fetches or worker-pool state (§4.7).
type PauseController interface {
	// Wait blocks while the transfer is paused, returning promptly when
	// either the pause lifts or ctx is cancelled.
	Wait(ctx context.Context) error
}
