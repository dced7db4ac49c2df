package mqconsume

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure of the consumption loop.
type Kind int

const (
	// KindConnection is a transient failure talking to the queue manager. Retried.
	KindConnection Kind = iota + 1
	// KindProtocol is a structural failure such as an unknown queue or a
	// missing authority. Retrying will not help, the loop terminates.
	KindProtocol
	// KindDecode is a payload that could not be decoded. The message is skipped.
	KindDecode
	// KindCancelled is a normal shutdown.
	KindCancelled
)

var (
	ErrConnection = errors.New("mq consume: connection error")
	ErrProtocol   = errors.New("mq consume: protocol error")
	ErrDecode     = errors.New("mq consume: decode error")
	ErrCancelled  = errors.New("mq consume: cancelled")
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindDecode:
		return "decode"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindProtocol:
		return ErrProtocol
	case KindDecode:
		return ErrDecode
	case KindCancelled:
		return ErrCancelled
	}
	return nil
}

// LoopError is returned by Run and by the messaging client collaborators.
type LoopError struct {
	Kind  Kind
	Op    string
	Queue string
	Err   error
}

func (e *LoopError) Error() string {
	msg := "mq consume: " + e.Kind.String()
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Queue != "" {
		msg += fmt.Sprintf(" queue=%q", e.Queue)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoopError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind, so errors.Is(err, ErrProtocol) works
// on any *LoopError of kind KindProtocol.
func (e *LoopError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ConnectionError wraps err as a retryable failure of op.
func ConnectionError(op string, err error) error {
	return &LoopError{Kind: KindConnection, Op: op, Err: err}
}

// ProtocolError wraps err as a terminal failure of op.
func ProtocolError(op string, err error) error {
	return &LoopError{Kind: KindProtocol, Op: op, Err: err}
}

// DecodeError wraps err as an undecodable payload.
func DecodeError(err error) error {
	return &LoopError{Kind: KindDecode, Op: "decode", Err: err}
}

func cancelledError(queue string, err error) error {
	if err == nil {
		err = context.Canceled
	}
	return &LoopError{Kind: KindCancelled, Op: "run", Queue: queue, Err: err}
}

// KindOf reports the kind of err. Errors that carry no kind are treated as
// connection errors, except context cancellation.
func KindOf(err error) Kind {
	var le *LoopError
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindConnection
}

// IsRetryable is true for errors the loop absorbs by reconnecting.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindConnection
}
