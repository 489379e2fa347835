package generator

import (
	"fmt"
	"math"
	"strings"

	"pgregory.net/rand"

	"latencygen/internal/dataset"
	"latencygen/internal/model"
)

const (
	DefaultMin = 0.05
	DefaultMax = 1.0
)

// Mode selects how all-pairs samples are fabricated from a node list.
type Mode string

const (
	// ModePaired walks unordered pairs i<j and emits an independent fwd and rev
	// sample for each.
	ModePaired Mode = "paired"
	// ModeOrdered walks every ordered pair i!=j and emits a single fwd sample.
	ModeOrdered Mode = "ordered"
)

// ParseMode validates a mode name. The empty string selects ModePaired.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePaired:
		return ModePaired, nil
	case ModeOrdered:
		return ModeOrdered, nil
	default:
		return "", fmt.Errorf("unknown generator mode %q (want paired|ordered)", s)
	}
}

// Options configures a Generator.
type Options struct {
	Mode Mode
	Min  float64
	Max  float64
	// Seed makes draws reproducible when non-zero.
	Seed uint64
}

// Generator fabricates latency samples. It is not safe for concurrent use.
type Generator struct {
	mode Mode
	min  float64
	max  float64
	rng  *rand.Rand
}

// New creates a generator. Zero bounds fall back to [DefaultMin, DefaultMax],
// inverted bounds are swapped and negative ones clamped to 0.
func New(opts Options) *Generator {
	g := &Generator{
		mode: opts.Mode,
		min:  opts.Min,
		max:  opts.Max,
	}
	if g.mode == "" {
		g.mode = ModePaired
	}
	if g.min == 0 && g.max == 0 {
		g.min, g.max = DefaultMin, DefaultMax
	}
	if g.min > g.max {
		g.min, g.max = g.max, g.min
	}
	if g.min < 0 {
		g.min = 0
	}
	if g.max < 0 {
		g.max = 0
	}
	if opts.Seed != 0 {
		g.rng = rand.New(opts.Seed)
	} else {
		g.rng = rand.New()
	}
	return g
}

// Mode reports which all-pairs behaviour is active.
func (g *Generator) Mode() Mode {
	return g.mode
}

// Generate returns the custom dataset's samples when rows is non-empty,
// otherwise all-pairs samples for nodes.
func (g *Generator) Generate(nodes []string, rows []dataset.Row) []model.Sample {
	if len(rows) > 0 {
		return FromCustom(rows)
	}
	return g.FromNodes(nodes)
}

// FromNodes fabricates N*(N-1) samples for the node list using the active mode.
func (g *Generator) FromNodes(nodes []string) []model.Sample {
	n := len(nodes)
	if n < 2 {
		return nil
	}
	samples := make([]model.Sample, 0, n*(n-1))

	if g.mode == ModeOrdered {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				samples = append(samples, model.Sample{
					Source:    nodes[i],
					Target:    nodes[j],
					Direction: model.Forward,
					Value:     g.draw(),
				})
			}
		}
		return samples
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := nodes[i], nodes[j]
			samples = append(samples,
				model.Sample{Source: a, Target: b, Direction: model.Forward, Value: g.draw()},
				model.Sample{Source: b, Target: a, Direction: model.Reverse, Value: g.draw()},
			)
		}
	}
	return samples
}

// FromCustom expands rows by kind: mirrored and paired rows emit a fwd and a
// swapped rev sample, directed rows emit exactly one sample.
func FromCustom(rows []dataset.Row) []model.Sample {
	samples := make([]model.Sample, 0, 2*len(rows))
	for _, row := range rows {
		switch row.Kind {
		case dataset.Directed:
			samples = append(samples, model.Sample{
				Source:    row.Source,
				Target:    row.Target,
				Direction: model.Direction(row.Direction),
				Value:     row.Latency,
			})
		case dataset.Paired:
			samples = append(samples,
				model.Sample{Source: row.Source, Target: row.Target, Direction: model.Forward, Value: row.Latency},
				model.Sample{Source: row.Target, Target: row.Source, Direction: model.Reverse, Value: row.Reverse},
			)
		default:
			samples = append(samples,
				model.Sample{Source: row.Source, Target: row.Target, Direction: model.Forward, Value: row.Latency},
				model.Sample{Source: row.Target, Target: row.Source, Direction: model.Reverse, Value: row.Latency},
			)
		}
	}
	return samples
}

// draw returns a uniform value in [min, max] rounded to 3 decimals.
func (g *Generator) draw() float64 {
	v := g.min + g.rng.Float64()*(g.max-g.min)
	return math.Round(v*1000) / 1000
}
