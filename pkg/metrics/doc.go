// Package metrics provides observability primitives for the transfer
// core.
//
// # Overview
//
// The metrics package offers:
//   - Metrics collection (counters, gauges, histograms)
//   - Prometheus export built on the official client library
//   - Distributed tracing support (OpenTelemetry-compatible interface)
//   - Structured logging backed by zap
//   - Health check endpoints
//
// # Quick start
//
//	import "github.com/filecore/transfer-core/pkg/metrics"
//
//	metrics.Global().RecordBytesUploaded(1 << 20)
//	metrics.Global().RecordChunkEncryptLatency(120 * time.Microsecond)
//
//	exporter := metrics.NewPrometheusExporter(metrics.Global(), "transfer_core")
//	http.Handle("/metrics", exporter.Handler())
//
// # Metrics collection
//
//	collector := metrics.NewCollector(metrics.Labels{"instance": "client-1"})
//	collector.UploadStarted()
//	collector.RecordBytesUploaded(n)
//	collector.RecordChunkRetry()
//	snap := collector.Snapshot()
//
// # Tracing
//
// The package provides a Tracer interface compatible with OpenTelemetry:
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	otelTracer := metrics.NewOTelTracer("transfer-core")
//	metrics.SetTracer(otelTracer)
//	// Build with -tags otel to enable the real adapter; without it
//	// NewOTelTracer returns a no-op.
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanUpload)
//	defer end(nil) // or end(err) on failure
//
// # Structured logging
//
//	logger := metrics.NewLogger(metrics.WithLevel(metrics.LevelInfo))
//	logger.Info("upload committed", metrics.Fields{"file_id": fileID})
//	chunkLog := logger.Named("upload").With(metrics.Fields{"chunk": idx})
//	chunkLog.Debug("chunk encrypted")
//
// # Health checks
//
//	health := metrics.NewHealthCheck(collector, "1.0.0")
//	health.AddCheck("object_store", pingObjectStore)
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler())
package metrics
