package services

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// submissionsTotal counts Submit calls by outcome.
var submissionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "form_submissions_total",
		Help: "Total number of form submissions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(submissionsTotal)
}
