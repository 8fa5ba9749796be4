package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascend_form_submissions_total",
		Help: "Form submissions by form and outcome",
	}, []string{"form", "outcome"})

	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ascend_insurance_extractions_total",
		Help: "Insurance document extractions by outcome",
	}, []string{"outcome"})

	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ascend_insurance_extraction_duration_seconds",
		Help:    "Duration of a single vision extraction call",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	remindersSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ascend_insurance_reminder_emails_total",
		Help: "Expiry reminder emails delivered",
	})

	documentsRemindedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ascend_insurance_documents_reminded_total",
		Help: "Insurance documents marked as reminded",
	})
)

// IncSubmission counts a form submission outcome (sent, simulated, rejected, failed).
func IncSubmission(form, outcome string) {
	submissionsTotal.WithLabelValues(form, outcome).Inc()
}

// ObserveExtraction records one extraction call.
func ObserveExtraction(outcome string, start time.Time) {
	extractionsTotal.WithLabelValues(outcome).Inc()
	extractionDuration.Observe(time.Since(start).Seconds())
}

// AddReminders records a delivered reminder email covering n documents.
func AddReminders(documents int) {
	remindersSentTotal.Inc()
	documentsRemindedTotal.Add(float64(documents))
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
