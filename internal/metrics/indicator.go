// Package metrics provides Prometheus metrics for the status indicator.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/statusled/internal/indicator"
)

var patterns = []indicator.Pattern{
	indicator.PatternIdle,
	indicator.PatternAdvertising,
	indicator.PatternConnected,
	indicator.PatternSequence,
	indicator.PatternSuspended,
}

// IndicatorRecorder implements indicator.Recorder on Prometheus collectors.
type IndicatorRecorder struct {
	lineTransitions *prometheus.CounterVec
	lineOn          prometheus.Gauge
	pattern         *prometheus.GaugeVec
	sequences       *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewIndicatorRecorder registers the indicator collectors with reg.
func NewIndicatorRecorder(reg prometheus.Registerer) *IndicatorRecorder {
	factory := promauto.With(reg)

	r := &IndicatorRecorder{
		lineTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statusled",
			Subsystem: "indicator",
			Name:      "line_transitions_total",
			Help:      "LED level changes by new level",
		}, []string{"state"}),

		lineOn: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "statusled",
			Subsystem: "indicator",
			Name:      "line_on",
			Help:      "1 while the LED is lit",
		}),

		pattern: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "statusled",
			Subsystem: "indicator",
			Name:      "pattern",
			Help:      "1 for the pattern currently owning the LED",
		}, []string{"pattern"}),

		sequences: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statusled",
			Subsystem: "indicator",
			Name:      "sequences_total",
			Help:      "Finished blink sequences by outcome",
		}, []string{"outcome"}),

		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statusled",
			Subsystem: "indicator",
			Name:      "reconciliations_total",
			Help:      "Connection changes detected by polling instead of events",
		}, []string{"connected"}),
	}

	r.PatternChanged(indicator.PatternIdle)
	return r
}

// LineChanged implements indicator.Recorder.
func (r *IndicatorRecorder) LineChanged(on bool) {
	if on {
		r.lineTransitions.WithLabelValues("on").Inc()
		r.lineOn.Set(1)
		return
	}
	r.lineTransitions.WithLabelValues("off").Inc()
	r.lineOn.Set(0)
}

// PatternChanged implements indicator.Recorder.
func (r *IndicatorRecorder) PatternChanged(p indicator.Pattern) {
	for _, candidate := range patterns {
		v := 0.0
		if candidate == p {
			v = 1
		}
		r.pattern.WithLabelValues(string(candidate)).Set(v)
	}
}

// SequenceFinished implements indicator.Recorder.
func (r *IndicatorRecorder) SequenceFinished(outcome indicator.SequenceOutcome) {
	r.sequences.WithLabelValues(string(outcome)).Inc()
}

// Reconciled implements indicator.Recorder.
func (r *IndicatorRecorder) Reconciled(connected bool) {
	r.reconciliations.WithLabelValues(strconv.FormatBool(connected)).Inc()
}
