package metrics

import "sync"

// Search pipeline metrics.
var (
	SearchStageDuration = histogramVec("search_stage_duration_seconds",
		"Time from search start until a stage is emitted",
		[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, "stage")

	// SearchStagesTotal status is ok or degraded.
	SearchStagesTotal = counterVec("search_stages_total", "Emitted search stages", "stage", "status")

	SearchDegradedTotal = counterVec("search_degraded_total",
		"Searches that fell back because a collaborator failed", "reason")

	// SearchAbandonedTotal cause is cancelled or stopped.
	SearchAbandonedTotal = counterVec("search_abandoned_total",
		"Searches that ended before the complete stage", "after_stage", "cause")

	// CorrectionTotal method is rule, ai or none.
	CorrectionTotal = counterVec("correction_total", "Query corrections by method", "method")

	CorrectionAIErrorsTotal = counterVec("correction_ai_errors_total",
		"AI corrector failures, the query is used as the rule pass left it", "strategy")
)

var searchOnce sync.Once

// RegisterSearchMetrics registers search and correction collectors.
func RegisterSearchMetrics() {
	registerOnce(&searchOnce,
		SearchStageDuration,
		SearchStagesTotal,
		SearchDegradedTotal,
		SearchAbandonedTotal,
		CorrectionTotal,
		CorrectionAIErrorsTotal,
	)
}
