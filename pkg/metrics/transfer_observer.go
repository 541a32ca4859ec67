package metrics

import (
	"context"
	"time"
)

// TransferObserver provides observability hooks for the upload and
// download engines. Wire one into an Engine's instrumentation points to
// get metrics, traces, and structured logs for free.
type TransferObserver struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
	fileID    string
	direction string // "upload" or "download"
}

// TransferObserverConfig configures a transfer observer.
type TransferObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	FileID    string
	Direction string
}

// NewTransferObserver creates a new transfer observer.
func NewTransferObserver(cfg TransferObserverConfig) *TransferObserver {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}

	return &TransferObserver{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger: cfg.Logger.Named("transfer").With(Fields{
			"file_id":   cfg.FileID,
			"direction": cfg.Direction,
		}),
		fileID:    cfg.FileID,
		direction: cfg.Direction,
	}
}

// OnUploadStart should be called when an upload begins.
func (o *TransferObserver) OnUploadStart() {
	o.collector.UploadStarted()
	o.logger.Info("upload started")
}

// OnUploadEnd should be called when an upload finishes, successfully or not.
func (o *TransferObserver) OnUploadEnd(err error) {
	o.collector.UploadEnded()
	if err != nil {
		o.collector.UploadFailed()
		o.logger.Error("upload failed", Fields{"error": err.Error()})
		return
	}
	o.logger.Info("upload committed")
}

// OnDownloadStart should be called when a download begins.
func (o *TransferObserver) OnDownloadStart() {
	o.collector.DownloadStarted()
	o.logger.Info("download started")
}

// OnDownloadEnd should be called when a download finishes, successfully or not.
func (o *TransferObserver) OnDownloadEnd(err error) {
	o.collector.DownloadEnded()
	if err != nil {
		o.collector.DownloadFailed()
		o.logger.Error("download failed", Fields{"error": err.Error()})
		return
	}
	o.logger.Info("download complete")
}

// OnChunkEncrypt returns a context and completion function wrapping one
// chunk's compress-then-seal step.
func (o *TransferObserver) OnChunkEncrypt(ctx context.Context, index int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanChunkEncrypt, WithAttributes(
		SpanAttributes{FileID: o.fileID, ChunkIndex: index}.ToMap(),
	))

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordChunkEncryptLatency(duration)
		if err != nil {
			o.collector.RecordAeadFailure()
			o.logger.Debug("chunk encrypt failed", Fields{"chunk": index, "error": err.Error()})
		}
		endSpan(err)
	}
}

// OnChunkDecrypt returns a context and completion function wrapping one
// chunk's open-then-decompress step.
func (o *TransferObserver) OnChunkDecrypt(ctx context.Context, index int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanChunkDecrypt, WithAttributes(
		SpanAttributes{FileID: o.fileID, ChunkIndex: index}.ToMap(),
	))

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordChunkDecryptLatency(duration)
		if err != nil {
			o.collector.RecordAeadFailure()
			o.logger.Debug("chunk decrypt failed", Fields{"chunk": index, "error": err.Error()})
		}
		endSpan(err)
	}
}

// OnChunkPut returns a context and completion function wrapping one
// chunk's object-store PUT.
func (o *TransferObserver) OnChunkPut(ctx context.Context, index int, size int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanChunkPut, WithAttributes(
		SpanAttributes{FileID: o.fileID, ChunkIndex: index, BytesPut: int64(size)}.ToMap(),
	))

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordChunkPutLatency(duration)
		if err != nil {
			o.collector.RecordChunkPutRejected()
			o.logger.Debug("chunk put failed", Fields{"chunk": index, "error": err.Error()})
		} else {
			o.collector.RecordChunkUploaded()
			o.collector.RecordBytesUploaded(uint64(size))
		}
		endSpan(err)
	}
}

// OnChunkFetch returns a context and completion function wrapping one
// chunk's object-store GET.
func (o *TransferObserver) OnChunkFetch(ctx context.Context, index int) (context.Context, func(size int, err error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanChunkFetch, WithAttributes(
		SpanAttributes{FileID: o.fileID, ChunkIndex: index}.ToMap(),
	))

	return ctx, func(size int, err error) {
		duration := time.Since(start)
		o.collector.RecordChunkFetchLatency(duration)
		if err != nil {
			o.logger.Debug("chunk fetch failed", Fields{"chunk": index, "error": err.Error()})
		} else {
			o.collector.RecordChunkDownloaded()
			o.collector.RecordBytesDownloaded(uint64(size))
		}
		endSpan(err)
	}
}

// OnChunkRetry records a chunk PUT/GET retry attempt.
func (o *TransferObserver) OnChunkRetry(index int) {
	o.collector.RecordChunkRetry()
	o.logger.Warn("chunk retry", Fields{"chunk": index})
}

// OnSizeReconciled records a chunk accepted despite a size mismatch.
func (o *TransferObserver) OnSizeReconciled(index int, wantSize, gotSize int64) {
	o.collector.RecordSizeReconciliation()
	o.logger.Debug("chunk size reconciled", Fields{"chunk": index, "want": wantSize, "got": gotSize})
}

// OnIntegrityFailure records a content hash mismatch.
func (o *TransferObserver) OnIntegrityFailure(scope string) {
	o.collector.RecordIntegrityFailure()
	o.logger.Error("integrity check failed", Fields{"scope": scope})
}

// OnSignatureFailure records a manifest signature verification failure.
func (o *TransferObserver) OnSignatureFailure(ctx context.Context) func(error) {
	_, endSpan := o.tracer.StartSpan(ctx, SpanManifestVerify)
	return func(err error) {
		o.collector.RecordSignatureFailure()
		o.logger.Error("manifest signature verification failed", Fields{"error": err.Error()})
		endSpan(err)
	}
}

// OnKemFailure records a KEM decapsulation failure.
func (o *TransferObserver) OnKemFailure(err error) {
	o.collector.RecordKemFailure()
	o.logger.Error("kem decapsulation failed", Fields{"error": err.Error()})
}

// OnCompressionSavings records the bytes saved by compressing a chunk.
func (o *TransferObserver) OnCompressionSavings(originalSize, compressedSize int) {
	if originalSize <= compressedSize {
		return
	}
	o.collector.RecordCompressionSavings(uint64(originalSize - compressedSize))
}

// Logger returns the observer's logger for custom logging.
func (o *TransferObserver) Logger() *Logger {
	return o.logger
}

// --- Share lifecycle ---

// ShareObserver provides observability hooks for share create/accept/decline.
type ShareObserver struct {
	collector *Collector
	logger    *Logger
}

// NewShareObserver creates a new share observer.
func NewShareObserver(c *Collector, l *Logger) *ShareObserver {
	if c == nil {
		c = Global()
	}
	if l == nil {
		l = GetLogger()
	}
	return &ShareObserver{collector: c, logger: l.Named("share")}
}

// OnShareCreated records a newly created share.
func (o *ShareObserver) OnShareCreated(shareID, itemID string) {
	o.collector.RecordShareCreated()
	o.logger.Info("share created", Fields{"share_id": shareID, "item_id": itemID})
}

// OnShareAccepted records a share acceptance.
func (o *ShareObserver) OnShareAccepted(shareID string) {
	o.collector.RecordShareAccepted()
	o.logger.Info("share accepted", Fields{"share_id": shareID})
}

// OnShareDeclined records a share decline.
func (o *ShareObserver) OnShareDeclined(shareID string) {
	o.collector.RecordShareDeclined()
	o.logger.Info("share declined", Fields{"share_id": shareID})
}
