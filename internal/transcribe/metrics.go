package transcribe

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK          = "ok"
	outcomeSilent      = "silent"
	outcomeNotLoaded   = "not_loaded"
	outcomeTooLarge    = "too_large"
	outcomeDecodeError = "decode_error"
	outcomeBusy        = "busy"
	outcomeError       = "error"
)

var (
	transcriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asrd",
			Name:      "transcriptions_total",
			Help:      "Transcription requests by outcome",
		},
		[]string{"outcome"},
	)
	transcriptionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asrd",
			Name:      "transcription_duration_seconds",
			Help:      "End-to-end pipeline latency including model load",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(transcriptionsTotal, transcriptionDuration)
}
