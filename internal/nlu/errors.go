package nlu

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies transport failures for operator-facing messages.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindTimeout
	KindSlowConnect
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindSlowConnect:
		return "slow-connect"
	default:
		return "generic"
	}
}

// Message is the one-line console description of the failure class.
func (k ErrorKind) Message() string {
	switch k {
	case KindTimeout:
		return "Connection timed out"
	case KindSlowConnect:
		return "Server responding too slowly"
	default:
		return "Error"
	}
}

// TransportError wraps any failure to obtain a parse result for a sentence.
type TransportError struct {
	Kind     ErrorKind
	Sentence string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Classify maps a request error onto an ErrorKind. A timeout while dialing
// means the server is too slow to accept connections; any other timeout is a
// timed-out request.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindGeneric
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout() {
		return KindSlowConnect
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindGeneric
}
