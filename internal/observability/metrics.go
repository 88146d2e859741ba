package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HandshakeAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_handshake_attempts_total",
		Help: "Heartbeat handshake attempts on connectionless links",
	})
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_messages_received_total",
		Help: "UTM_GLOBAL_POSITION messages received from the telemetry link",
	})
	FramesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_frames_skipped_total",
		Help: "Frames of non-position message types ignored at the link",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_frames_dropped_total",
		Help: "Frames dropped for checksum or framing errors",
	})
	PublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_publish_total",
		Help: "Publish attempts per sink",
	}, []string{"sink"})
	PublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_publish_errors_total",
		Help: "Failed publishes per sink (dropped, not retried)",
	}, []string{"sink"})
	TranslateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_translate_latency_seconds",
		Help:    "Per-message translate and serialize latency",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveTranslateLatency(start time.Time) {
	TranslateLatency.Observe(time.Since(start).Seconds())
}

func StartMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	_ = http.ListenAndServe(":"+port, nil)
}
