package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdmissionsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admissions_submitted_total",
		Help: "Admission applications submitted.",
	})

	AdmissionsReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admissions_reviewed_total",
		Help: "Admission review transitions by resulting status.",
	}, []string{"status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound notification dispatches by purpose and result.",
	}, []string{"purpose", "result"})
)
