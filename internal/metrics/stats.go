package metrics

import (
	"math"
	"sort"

	"latencygen/internal/model"
)

// Summary is a basic statistics snapshot of one cycle's latency values.
type Summary struct {
	Count    int
	Forward  int
	Reverse  int
	MinValue float64
	MaxValue float64
	AvgValue float64
	P95Value float64
}

// Summarize computes summary statistics over samples.
func Summarize(items []model.Sample) Summary {
	if len(items) == 0 {
		return Summary{Count: 0}
	}

	values := make([]float64, 0, len(items))
	var sum float64
	var fwd, rev int
	minValue := math.MaxFloat64
	maxValue := 0.0

	for _, s := range items {
		values = append(values, s.Value)
		sum += s.Value
		if s.Value < minValue {
			minValue = s.Value
		}
		if s.Value > maxValue {
			maxValue = s.Value
		}
		switch s.Direction {
		case model.Forward:
			fwd++
		case model.Reverse:
			rev++
		}
	}

	sort.Float64s(values)

	return Summary{
		Count:    len(items),
		Forward:  fwd,
		Reverse:  rev,
		MinValue: minValue,
		MaxValue: maxValue,
		AvgValue: sum / float64(len(items)),
		P95Value: percentile(values, 0.95),
	}
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}
