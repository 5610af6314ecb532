package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a failed gateway call.
type Kind int

const (
	// KindUpstream covers any gateway-side failure not matched below.
	KindUpstream Kind = iota
	// KindAuth means the gateway rejected our bearer token.
	KindAuth
	// KindUnreachable means the gateway could not be reached at all
	// (connection refused, DNS failure).
	KindUnreachable
	// KindTimeout means the request exceeded the client timeout.
	KindTimeout
)

// Error is the classified failure returned by every Client method.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("gateway authorization rejected: %s", e.Message)
	case KindUnreachable:
		return fmt.Sprintf("gateway unreachable: %s", e.Message)
	case KindTimeout:
		return fmt.Sprintf("gateway request timed out: %s", e.Message)
	default:
		return fmt.Sprintf("gateway error: %s", e.Message)
	}
}

// classifyTransport maps a transport-level failure (no HTTP response was
// received) to a gateway Error.
func classifyTransport(err error) *Error {
	if isTimeoutError(err) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	if isUnreachableError(err) {
		return &Error{Kind: KindUnreachable, Message: err.Error()}
	}
	return &Error{Kind: KindUpstream, Message: err.Error()}
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnreachableError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
