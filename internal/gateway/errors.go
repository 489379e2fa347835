package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorKind classifies a failed push.
type ErrorKind int

const (
	// KindNone marks a successful push.
	KindNone ErrorKind = iota
	// KindUnreachable means the gateway could not be connected to.
	KindUnreachable
	// KindTimeout means the gateway did not answer within the request timeout.
	KindTimeout
	// KindBadStatus means the gateway answered with a status other than 200.
	KindBadStatus
	// KindOther covers everything else.
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindBadStatus:
		return "bad_status"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kinds lists every failure kind, in declaration order.
var Kinds = []ErrorKind{KindUnreachable, KindTimeout, KindBadStatus, KindOther}

// PushError is returned by Client.Push for every failed push.
type PushError struct {
	Kind       ErrorKind
	StatusCode int    // KindBadStatus only
	Body       string // KindBadStatus only
	Err        error
}

func (e *PushError) Error() string {
	switch e.Kind {
	case KindBadStatus:
		if e.Body != "" {
			return fmt.Sprintf("push failed: status %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("push failed: status %d", e.StatusCode)
	default:
		if e.Err == nil {
			return "push failed: " + e.Kind.String()
		}
		return fmt.Sprintf("push failed (%s): %v", e.Kind, e.Err)
	}
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err, KindNone for nil and KindOther for
// errors that did not come from a push.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var pe *PushError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

func classify(err error) ErrorKind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnreachable
	}
	return KindOther
}
