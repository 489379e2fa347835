package metrics

import (
	"testing"

	"latencygen/internal/model"
)

func TestSummarize_Basic(t *testing.T) {
	t.Parallel()

	items := []model.Sample{
		{Source: "a", Target: "b", Direction: model.Forward, Value: 0.1},
		{Source: "b", Target: "a", Direction: model.Reverse, Value: 0.3},
		{Source: "a", Target: "c", Direction: "custom", Value: 0.2},
	}
	s := Summarize(items)
	if s.Count != 3 {
		t.Fatalf("count=%d", s.Count)
	}
	if s.Forward != 1 || s.Reverse != 1 {
		t.Fatalf("fwd/rev=%d/%d", s.Forward, s.Reverse)
	}
	if s.MinValue != 0.1 || s.MaxValue != 0.3 {
		t.Fatalf("min/max=%.3f/%.3f", s.MinValue, s.MaxValue)
	}
	if got := s.AvgValue; got < 0.1999 || got > 0.2001 {
		t.Fatalf("avg=%.4f", got)
	}
	if s.P95Value != 0.3 {
		t.Fatalf("p95=%.3f", s.P95Value)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	if s := Summarize(nil); s != (Summary{}) {
		t.Fatalf("summary=%+v", s)
	}
}

func TestPercentile_Edges(t *testing.T) {
	t.Parallel()

	values := []float64{1, 2, 3, 4}
	if got := percentile(values, 0); got != 1 {
		t.Fatalf("p0=%v", got)
	}
	if got := percentile(values, 1); got != 4 {
		t.Fatalf("p100=%v", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("empty=%v", got)
	}
}
