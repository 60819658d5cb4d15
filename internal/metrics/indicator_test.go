package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smazurov/statusled/internal/indicator"
)

var _ indicator.Recorder = (*IndicatorRecorder)(nil)

func TestIndicatorRecorder_Line(t *testing.T) {
	r := NewIndicatorRecorder(prometheus.NewRegistry())

	r.LineChanged(true)
	r.LineChanged(false)
	r.LineChanged(true)

	if got := testutil.ToFloat64(r.lineTransitions.WithLabelValues("on")); got != 2 {
		t.Errorf("on transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.lineTransitions.WithLabelValues("off")); got != 1 {
		t.Errorf("off transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lineOn); got != 1 {
		t.Errorf("line_on = %v, want 1", got)
	}
}

func TestIndicatorRecorder_PatternIsExclusive(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewIndicatorRecorder(reg)

	r.PatternChanged(indicator.PatternAdvertising)
	r.PatternChanged(indicator.PatternSequence)

	expected := `
# HELP statusled_indicator_pattern 1 for the pattern currently owning the LED
# TYPE statusled_indicator_pattern gauge
statusled_indicator_pattern{pattern="advertising"} 0
statusled_indicator_pattern{pattern="connected"} 0
statusled_indicator_pattern{pattern="idle"} 0
statusled_indicator_pattern{pattern="sequence"} 1
statusled_indicator_pattern{pattern="suspended"} 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "statusled_indicator_pattern"); err != nil {
		t.Error(err)
	}
}

func TestIndicatorRecorder_Sequences(t *testing.T) {
	r := NewIndicatorRecorder(prometheus.NewRegistry())

	r.SequenceFinished(indicator.SequenceCompleted)
	r.SequenceFinished(indicator.SequenceSuperseded)
	r.SequenceFinished(indicator.SequenceCompleted)
	r.Reconciled(true)

	tests := []struct {
		collector prometheus.Collector
		want      float64
	}{
		{r.sequences.WithLabelValues("completed"), 2},
		{r.sequences.WithLabelValues("superseded"), 1},
		{r.sequences.WithLabelValues("aborted"), 0},
		{r.reconciliations.WithLabelValues("true"), 1},
	}
	for i, tt := range tests {
		if got := testutil.ToFloat64(tt.collector); got != tt.want {
			t.Errorf("case %d: got %v, want %v", i, got, tt.want)
		}
	}
}
