// Package metrics exposes Prometheus collectors for compliance activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daritana_compliance_checks_total",
			Help: "Total compliance checks run, by building type and resulting status.",
		},
		[]string{"building_type", "status"},
	)
	violationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daritana_compliance_violations_total",
			Help: "Total violations recorded, by severity and source (evaluator or manual).",
		},
		[]string{"severity", "source"},
	)
	violationsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "daritana_compliance_violations_resolved_total",
			Help: "Total violations resolved by reviewers.",
		},
	)
	reportsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "daritana_compliance_reports_generated_total",
			Help: "Total compliance reports generated.",
		},
	)
	reportExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daritana_compliance_report_exports_total",
			Help: "Total report exports, by format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "daritana_compliance_evaluation_duration_seconds",
			Help:    "Duration of clause evaluation for a single building.",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		},
	)
	complianceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "daritana_compliance_score",
			Help:    "Distribution of compliance scores at evaluation time.",
			Buckets: []float64{0, 25, 50, 70, 85, 95, 100},
		},
	)
)

// Violation sources
const (
	SourceEvaluator = "evaluator"
	SourceManual    = "manual"
)

// RecordCheck counts an evaluated compliance check
func RecordCheck(buildingType, status string, score int, took time.Duration) {
	checksTotal.WithLabelValues(buildingType, status).Inc()
	complianceScore.Observe(float64(score))
	evaluationDuration.Observe(took.Seconds())
}

// RecordViolation counts a violation added to a check
func RecordViolation(severity, source string) {
	violationsTotal.WithLabelValues(severity, source).Inc()
}

// RecordResolved counts a resolved violation
func RecordResolved() {
	violationsResolvedTotal.Inc()
}

// RecordReport counts a generated report
func RecordReport() {
	reportsGeneratedTotal.Inc()
}

// RecordExport counts a report export attempt
func RecordExport(format string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	reportExportsTotal.WithLabelValues(format, outcome).Inc()
}

// Handler serves the default Prometheus registry
func Handler() http.Handler {
	return promhttp.Handler()
}
