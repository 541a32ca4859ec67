package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exposes a Collector's snapshot through a dedicated
// prometheus.Registry, independent of the global DefaultRegisterer so
// multiple exporters can coexist in one process (e.g. in tests).
type PrometheusExporter struct {
	collector *Collector
	registry  *prometheus.Registry
	desc      promDescriptors
}

// NewPrometheusExporter creates a Prometheus exporter for the given
// collector. namespace prefixes every exported metric name, e.g.
// "transfer_core".
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	e := &PrometheusExporter{
		collector: c,
		registry:  prometheus.NewRegistry(),
		desc:      newPromDescriptors(namespace),
	}
	e.registry.MustRegister(promCollectorAdapter{exporter: e})
	return e
}

// Handler returns an http.Handler serving metrics in Prometheus exposition
// format, via the exporter's dedicated registry.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry, for tests that want to
// register additional collectors alongside it.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// promDescriptors holds the prometheus.Desc for every exported series,
// built once per namespace.
type promDescriptors struct {
	uploadsActive   *prometheus.Desc
	uploadsTotal    *prometheus.Desc
	uploadsFailed   *prometheus.Desc
	downloadsActive *prometheus.Desc
	downloadsTotal  *prometheus.Desc
	downloadsFailed *prometheus.Desc

	bytesUploaded    *prometheus.Desc
	bytesDownloaded  *prometheus.Desc
	chunksUploaded   *prometheus.Desc
	chunksDownloaded *prometheus.Desc

	chunkRetries         *prometheus.Desc
	chunkPutsRejected    *prometheus.Desc
	objectStoreThrottled *prometheus.Desc

	integrityFailures   *prometheus.Desc
	signatureFailures   *prometheus.Desc
	kemFailures         *prometheus.Desc
	aeadFailures        *prometheus.Desc
	sizeReconciliations *prometheus.Desc

	bytesSavedByCompression *prometheus.Desc

	sharesCreated  *prometheus.Desc
	sharesAccepted *prometheus.Desc
	sharesDeclined *prometheus.Desc

	uptimeSeconds *prometheus.Desc

	chunkEncryptLatency *prometheus.Desc
	chunkDecryptLatency *prometheus.Desc
	chunkFetchLatency   *prometheus.Desc
	chunkPutLatency     *prometheus.Desc
}

func newPromDescriptors(namespace string) promDescriptors {
	noLabels := []string{}
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(namespace+"_"+name, help, noLabels, nil)
	}
	return promDescriptors{
		uploadsActive:           d("uploads_active", "Number of uploads currently in flight"),
		uploadsTotal:            d("uploads_total", "Total number of uploads started"),
		uploadsFailed:           d("uploads_failed_total", "Total number of uploads that failed"),
		downloadsActive:         d("downloads_active", "Number of downloads currently in flight"),
		downloadsTotal:          d("downloads_total", "Total number of downloads started"),
		downloadsFailed:         d("downloads_failed_total", "Total number of downloads that failed"),
		bytesUploaded:           d("bytes_uploaded_total", "Total plaintext bytes uploaded"),
		bytesDownloaded:         d("bytes_downloaded_total", "Total plaintext bytes downloaded"),
		chunksUploaded:          d("chunks_uploaded_total", "Total chunks successfully put to the object store"),
		chunksDownloaded:        d("chunks_downloaded_total", "Total chunks successfully fetched from the object store"),
		chunkRetries:            d("chunk_retries_total", "Total chunk PUT/GET retry attempts"),
		chunkPutsRejected:       d("chunk_puts_rejected_total", "Total chunk PUTs rejected as non-retryable"),
		objectStoreThrottled:    d("object_store_throttled_total", "Total requests delayed by the client-side object store rate limiter"),
		integrityFailures:       d("integrity_failures_total", "Total content hash verification failures"),
		signatureFailures:       d("signature_failures_total", "Total manifest signature verification failures"),
		kemFailures:             d("kem_failures_total", "Total KEM decapsulation failures"),
		aeadFailures:            d("aead_failures_total", "Total AEAD authentication failures"),
		sizeReconciliations:     d("size_reconciliations_total", "Total chunks accepted despite a size mismatch"),
		bytesSavedByCompression: d("compression_bytes_saved_total", "Total bytes saved by chunk compression"),
		sharesCreated:           d("shares_created_total", "Total shares created"),
		sharesAccepted:          d("shares_accepted_total", "Total shares accepted"),
		sharesDeclined:          d("shares_declined_total", "Total shares declined"),
		uptimeSeconds:           d("uptime_seconds", "Time since the collector was created"),
		chunkEncryptLatency:     d("chunk_encrypt_duration_microseconds", "Per-chunk compress+seal duration"),
		chunkDecryptLatency:     d("chunk_decrypt_duration_microseconds", "Per-chunk open+decompress duration"),
		chunkFetchLatency:       d("chunk_fetch_duration_milliseconds", "Per-chunk object-store GET duration"),
		chunkPutLatency:         d("chunk_put_duration_milliseconds", "Per-chunk object-store PUT duration"),
	}
}

// promCollectorAdapter implements prometheus.Collector by snapshotting the
// underlying Collector on each scrape.
type promCollectorAdapter struct {
	exporter *PrometheusExporter
}

func (a promCollectorAdapter) Describe(ch chan<- *prometheus.Desc) {
	d := a.exporter.desc
	for _, desc := range []*prometheus.Desc{
		d.uploadsActive, d.uploadsTotal, d.uploadsFailed,
		d.downloadsActive, d.downloadsTotal, d.downloadsFailed,
		d.bytesUploaded, d.bytesDownloaded, d.chunksUploaded, d.chunksDownloaded,
		d.chunkRetries, d.chunkPutsRejected, d.objectStoreThrottled,
		d.integrityFailures, d.signatureFailures, d.kemFailures, d.aeadFailures, d.sizeReconciliations,
		d.bytesSavedByCompression,
		d.sharesCreated, d.sharesAccepted, d.sharesDeclined,
		d.uptimeSeconds,
		d.chunkEncryptLatency, d.chunkDecryptLatency, d.chunkFetchLatency, d.chunkPutLatency,
	} {
		ch <- desc
	}
}

func (a promCollectorAdapter) Collect(ch chan<- prometheus.Metric) {
	snap := a.exporter.collector.Snapshot()
	d := a.exporter.desc

	gauge := func(desc *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v)
	}
	counter := func(desc *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v)
	}

	gauge(d.uploadsActive, float64(snap.UploadsActive))
	counter(d.uploadsTotal, float64(snap.UploadsTotal))
	counter(d.uploadsFailed, float64(snap.UploadsFailed))
	gauge(d.downloadsActive, float64(snap.DownloadsActive))
	counter(d.downloadsTotal, float64(snap.DownloadsTotal))
	counter(d.downloadsFailed, float64(snap.DownloadsFailed))

	counter(d.bytesUploaded, float64(snap.BytesUploaded))
	counter(d.bytesDownloaded, float64(snap.BytesDownloaded))
	counter(d.chunksUploaded, float64(snap.ChunksUploaded))
	counter(d.chunksDownloaded, float64(snap.ChunksDownloaded))

	counter(d.chunkRetries, float64(snap.ChunkRetries))
	counter(d.chunkPutsRejected, float64(snap.ChunkPutsRejected))
	counter(d.objectStoreThrottled, float64(snap.ObjectStoreThrottled))

	counter(d.integrityFailures, float64(snap.IntegrityFailures))
	counter(d.signatureFailures, float64(snap.SignatureFailures))
	counter(d.kemFailures, float64(snap.KemFailures))
	counter(d.aeadFailures, float64(snap.AeadFailures))
	counter(d.sizeReconciliations, float64(snap.SizeReconciliations))

	counter(d.bytesSavedByCompression, float64(snap.BytesSavedByCompression))

	counter(d.sharesCreated, float64(snap.SharesCreated))
	counter(d.sharesAccepted, float64(snap.SharesAccepted))
	counter(d.sharesDeclined, float64(snap.SharesDeclined))

	gauge(d.uptimeSeconds, snap.Uptime.Seconds())

	writeHistogram(ch, d.chunkEncryptLatency, snap.ChunkEncryptLatency)
	writeHistogram(ch, d.chunkDecryptLatency, snap.ChunkDecryptLatency)
	writeHistogram(ch, d.chunkFetchLatency, snap.ChunkFetchLatency)
	writeHistogram(ch, d.chunkPutLatency, snap.ChunkPutLatency)
}

func writeHistogram(ch chan<- prometheus.Metric, desc *prometheus.Desc, h HistogramSummary) {
	buckets := make(map[float64]uint64, len(h.Buckets))
	for _, b := range h.Buckets {
		buckets[b.UpperBound] = b.Count
	}
	ch <- prometheus.MustNewConstHistogram(desc, h.Count, h.Sum, buckets)
}

// --- Convenience ---

// ServePrometheus starts an HTTP server serving Prometheus metrics for c
// on addr. Convenience function for simple binaries; production services
// should mount Handler() on their own mux.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())
	return newHTTPServer(addr, mux).ListenAndServe()
}
