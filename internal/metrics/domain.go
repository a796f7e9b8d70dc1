package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	generationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerflow",
			Subsystem: "resume",
			Name:      "generations_total",
			Help:      "Resume generations by plan and outcome.",
		},
		[]string{"plan", "outcome"},
	)

	creditsDeducted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careerflow",
			Subsystem: "resume",
			Name:      "credits_deducted_total",
			Help:      "Credits burned by metered generations.",
		},
	)

	paymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerflow",
			Subsystem: "payment",
			Name:      "verifications_total",
			Help:      "Payment status checks by resulting state.",
		},
		[]string{"state"},
	)
)

func registerDomain() {
	domainOnce.Do(func() {
		prometheus.MustRegister(generationTotal, creditsDeducted, paymentVerifications)
	})
}

// ObserveGeneration records one generation attempt.
func ObserveGeneration(plan, outcome string) {
	registerDomain()
	generationTotal.WithLabelValues(plan, outcome).Inc()
}

// ObserveCreditDeducted records one burned credit.
func ObserveCreditDeducted() {
	registerDomain()
	creditsDeducted.Inc()
}

// ObservePaymentVerification records the state a status check resolved to.
func ObservePaymentVerification(state string) {
	registerDomain()
	paymentVerifications.WithLabelValues(state).Inc()
}
