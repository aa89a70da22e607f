// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "live_caption_rooms"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Room metrics
	RoomsCreated prometheus.Counter
	RoomsActive  prometheus.Gauge
	RoomsEvicted prometheus.Counter

	// Subscriber metrics
	SubscribersActive prometheus.Gauge
	QueueDropped      prometheus.Counter

	// Ordering gate metrics
	ResultsAccepted *prometheus.CounterVec
	ResultsStale    *prometheus.CounterVec

	// Collaborator metrics
	TranscribeLatency prometheus.Histogram
	TranscribeErrors  prometheus.Counter
	TranslateLatency  *prometheus.HistogramVec
	TranslateErrors   *prometheus.CounterVec

	// Ingest metrics
	AudioBytesReceived prometheus.Counter
	UtterancesTotal    prometheus.Counter

	// Archive publish metrics
	ArchivePublishTotal  prometheus.Counter
	ArchivePublishErrors prometheus.Counter
}

// New creates all metrics and registers them with the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of currently live rooms",
		}),
		RoomsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_evicted_total",
			Help:      "Total number of idle rooms evicted",
		}),

		SubscribersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers_active",
			Help:      "Number of currently subscribed clients",
		}),
		QueueDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dropped_total",
			Help:      "Total messages dropped on full subscriber queues",
		}),

		ResultsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_accepted_total",
			Help:      "Total results accepted by the ordering gate",
		}, []string{"kind"}),
		ResultsStale: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_stale_total",
			Help:      "Total results rejected as stale by the ordering gate",
		}, []string{"kind"}),

		TranscribeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_latency_seconds",
			Help:      "Transcription backend latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		TranscribeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_errors_total",
			Help:      "Total transcription backend errors",
		}),
		TranslateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translate_latency_seconds",
			Help:      "Translation backend latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"language"}),
		TranslateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translate_errors_total",
			Help:      "Total translation backend errors",
		}, []string{"language"}),

		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received from producers",
		}),
		UtterancesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total committed utterances",
		}),

		ArchivePublishTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_publish_total",
			Help:      "Total committed transcripts published to the archive topic",
		}),
		ArchivePublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_publish_errors_total",
			Help:      "Total archive publish errors",
		}),
	}
}
