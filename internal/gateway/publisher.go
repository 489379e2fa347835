package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"latencygen/internal/metrics"
)

// Outcome describes one publish attempt.
type Outcome struct {
	Lines      int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// OK reports whether the gateway accepted the payload.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind returns the failure kind, KindNone on success.
func (o Outcome) Kind() ErrorKind {
	return KindOf(o.Err)
}

// Publisher pushes payloads and logs the result. It never fails the caller.
type Publisher struct {
	client  *Client
	log     *zap.Logger
	verbose bool
}

// NewPublisher wraps client. With verbose set, successful pushes also log the
// payload and the gateway's response body.
func NewPublisher(client *Client, log *zap.Logger, verbose bool) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{client: client, log: log, verbose: verbose}
}

// Publish pushes payload once. Failures are logged by kind and reported in the
// returned Outcome.
func (p *Publisher) Publish(ctx context.Context, payload string) Outcome {
	out := Outcome{Lines: metrics.LineCount(payload)}

	start := time.Now()
	res, err := p.client.Push(ctx, payload)
	out.Duration = time.Since(start)
	out.StatusCode = res.StatusCode
	out.Err = err

	if err == nil {
		if p.verbose {
			p.log.Info("pushed metrics",
				zap.Int("lines", out.Lines),
				zap.Int("status", res.StatusCode),
				zap.String("payload", payload),
				zap.String("response", res.Body),
			)
		} else {
			p.log.Info("pushed metrics", zap.Int("lines", out.Lines))
		}
		return out
	}

	switch KindOf(err) {
	case KindBadStatus:
		p.log.Warn("gateway returned error",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
	case KindUnreachable:
		p.log.Warn("could not connect to gateway, is it running?",
			zap.String("url", p.client.URL()),
			zap.Error(err),
		)
	case KindTimeout:
		p.log.Warn("gateway unresponsive, request timed out",
			zap.String("url", p.client.URL()),
			zap.Duration("timeout", p.client.Timeout()),
		)
	default:
		p.log.Error("unexpected error pushing metrics", zap.Error(err))
	}
	return out
}
