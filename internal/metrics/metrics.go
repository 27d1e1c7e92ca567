// Package metrics holds the Prometheus collectors for store and analysis outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Store outcomes.
const (
	StoreNew       = "new"
	StoreDuplicate = "duplicate"
	StoreConflict  = "conflict"
)

// Analysis outcomes.
const (
	AnalysisCached     = "cached"
	AnalysisComputed   = "computed"
	AnalysisIneligible = "ineligible"
	AnalysisFailed     = "failed"
)

// Recorder counts domain outcomes. A nil *Recorder is valid and records nothing.
type Recorder struct {
	filesStored      *prometheus.CounterVec
	analysisRequests *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		filesStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docstore",
				Name:      "files_stored_total",
				Help:      "Store requests by outcome (new, duplicate, conflict).",
			},
			[]string{"outcome"},
		),
		analysisRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docstore",
				Name:      "analysis_requests_total",
				Help:      "Analysis requests by outcome (cached, computed, ineligible, failed).",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{r.filesStored, r.analysisRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FileStored records one store outcome.
func (r *Recorder) FileStored(outcome string) {
	if r == nil {
		return
	}
	r.filesStored.WithLabelValues(outcome).Inc()
}

// AnalysisServed records one analysis outcome.
func (r *Recorder) AnalysisServed(outcome string) {
	if r == nil {
		return
	}
	r.analysisRequests.WithLabelValues(outcome).Inc()
}
