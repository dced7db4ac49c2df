// Package mqconsume runs a reconnecting consumption loop over a message queue
// and hands every message to a caller supplied sink.
package mqconsume

import (
	"context"
	"time"
)

// OpenMode selects how a queue is read.
type OpenMode int

const (
	// ModeGet removes each message from the queue.
	ModeGet OpenMode = iota
	// ModeGetSyncpoint removes messages under syncpoint; the loop commits after the sink returns.
	ModeGetSyncpoint
	// ModeBrowse reads messages without removing them. The browse cursor
	// belongs to the queue handle, so after a reconnect browsing starts again
	// from the first message.
	ModeBrowse
)

func (m OpenMode) String() string {
	switch m {
	case ModeGet:
		return "get"
	case ModeGetSyncpoint:
		return "get_syncpoint"
	case ModeBrowse:
		return "browse"
	}
	return "unknown"
}

// Dialer creates connections to the message source. Connection parameters are
// private to the implementation.
type Dialer interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is an established connection. Disconnect must be safe to call twice.
type Conn interface {
	OpenQueue(name string, mode OpenMode) (Queue, error)
	Disconnect() error
}

// Queue is an open queue handle. Receive blocks for at most wait; it returns
// ok == false and a nil error when no message arrived in time. Close must be
// safe to call twice.
type Queue interface {
	Receive(ctx context.Context, wait time.Duration) (msg *Message, ok bool, err error)
	Close() error
}
