package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts analysis attempts by provider and result ("success" or an error kind).
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_analyzer",
		Name:      "analyses_total",
		Help:      "Total number of image analysis attempts, labeled by provider and result.",
	}, []string{"provider", "result"})

	// AnalysisDurationSeconds covers the credential probe and the analysis request together.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "image_analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent on one analysis attempt, credential probe included.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"provider"})
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalysesTotal, AnalysisDurationSeconds)
	})
}

// ObserveAnalysis records one finished attempt
func ObserveAnalysis(provider, result string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(provider, result).Inc()
	AnalysisDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}
