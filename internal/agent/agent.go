package agent

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"latencygen/internal/dataset"
	"latencygen/internal/gateway"
	"latencygen/internal/generator"
	"latencygen/internal/metrics"
	"latencygen/internal/model"
)

// Publisher delivers one payload. Implementations must not fail the caller.
type Publisher interface {
	Publish(ctx context.Context, payload string) gateway.Outcome
}

// Observer is notified about the loop's progress.
type Observer interface {
	ObserveCycle(samples []model.Sample)
	ObservePush(outcome gateway.Outcome)
	ObserveState(state State)
}

// Options holds the static, read-only inputs of a run.
type Options struct {
	Nodes    []string
	Custom   []dataset.Row
	Interval time.Duration
	Once     bool

	Observer Observer
	// After replaces time.After for the wait between cycles.
	After func(time.Duration) <-chan time.Time
}

// Agent drives generate -> publish cycles.
type Agent struct {
	opts   Options
	gen    *generator.Generator
	pub    Publisher
	log    *zap.Logger
	state  atomic.Int32
	cycles atomic.Int64
}

// New creates an agent in the running state.
func New(opts Options, gen *generator.Generator, pub Publisher, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.After == nil {
		opts.After = time.After
	}
	a := &Agent{opts: opts, gen: gen, pub: pub, log: log}
	a.state.Store(int32(StateRunning))
	return a
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Cycles returns how many cycles have completed.
func (a *Agent) Cycles() int64 {
	return a.cycles.Load()
}

// Cycle generates one payload and publishes it. Publish failures are reported
// in the outcome only.
func (a *Agent) Cycle(ctx context.Context) gateway.Outcome {
	samples := a.gen.Generate(a.opts.Nodes, a.opts.Custom)
	if a.opts.Observer != nil {
		a.opts.Observer.ObserveCycle(samples)
	}
	if ce := a.log.Check(zap.DebugLevel, "generated samples"); ce != nil {
		s := metrics.Summarize(samples)
		ce.Write(
			zap.Int("count", s.Count),
			zap.Float64("min", s.MinValue),
			zap.Float64("avg", s.AvgValue),
			zap.Float64("p95", s.P95Value),
			zap.Float64("max", s.MaxValue),
		)
	}

	// An interrupt must not abort a push that is already in flight; the
	// request timeout bounds it instead.
	out := a.pub.Publish(context.WithoutCancel(ctx), metrics.Payload(samples))
	a.cycles.Add(1)
	if a.opts.Observer != nil {
		a.opts.Observer.ObservePush(out)
	}
	return out
}

// Run loops until ctx is cancelled, or returns after one cycle when Once is
// set. Cancellation is reported as ctx.Err().
func (a *Agent) Run(ctx context.Context) error {
	a.setState(StateRunning)
	defer a.setState(StateStopped)

	for {
		a.Cycle(ctx)
		if a.opts.Once {
			a.log.Info("single cycle complete")
			return nil
		}

		select {
		case <-ctx.Done():
			a.log.Info("stopped by user")
			return ctx.Err()
		case <-a.opts.After(a.opts.Interval):
		}
	}
}

func (a *Agent) setState(s State) {
	a.state.Store(int32(s))
	if a.opts.Observer != nil {
		a.opts.Observer.ObserveState(s)
	}
}
