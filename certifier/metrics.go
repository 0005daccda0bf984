package certifier

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "certifier"

// Metrics contains metrics exposed by this package. They are side effects
// only and never affect control flow.
type Metrics struct {
	// Number of transactions certified with a quorum of effects
	// acknowledgments.
	ExecutedTransactions metrics.Counter
	// Number of rejection acknowledgments received from validators.
	RejectionAcks metrics.Counter
	// Number of expiration acknowledgments received from validators.
	ExpirationAcks metrics.Counter
	// Number of full-effects responses whose digest did not match the
	// quorum-certified digest.
	EffectsDigestMismatches metrics.Counter
	// Number of times a digest reached quorum while another digest bucket
	// held nonzero weight.
	DigestInconsistencies metrics.Counter
	// Number of second acknowledgments observed from a validator that had
	// already voted. These indicate a collector bug.
	DuplicateAcks metrics.Counter
	// Time from starting the acknowledgment fan-out to certifying a digest,
	// in seconds.
	AckLatency metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		ExecutedTransactions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "executed_transactions",
			Help:      "Number of transactions certified with a quorum of effects acknowledgments.",
		}, []string{}),
		RejectionAcks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejection_acks",
			Help:      "Number of rejection acknowledgments received from validators.",
		}, []string{}),
		ExpirationAcks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "expiration_acks",
			Help:      "Number of expiration acknowledgments received from validators.",
		}, []string{}),
		EffectsDigestMismatches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "effects_digest_mismatches",
			Help:      "Number of full-effects responses whose digest did not match the certified digest.",
		}, []string{}),
		DigestInconsistencies: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "digest_inconsistencies",
			Help:      "Number of times a digest reached quorum while another digest held weight.",
		}, []string{}),
		DuplicateAcks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "duplicate_acks",
			Help:      "Number of second acknowledgments from validators that had already voted.",
		}, []string{}),
		AckLatency: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "ack_latency",
			Help:      "Time to certify a digest from acknowledgments, in seconds.",
			Buckets:   stdprometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		ExecutedTransactions:    discard.NewCounter(),
		RejectionAcks:           discard.NewCounter(),
		ExpirationAcks:          discard.NewCounter(),
		EffectsDigestMismatches: discard.NewCounter(),
		DigestInconsistencies:   discard.NewCounter(),
		DuplicateAcks:           discard.NewCounter(),
		AckLatency:              discard.NewHistogram(),
	}
}
