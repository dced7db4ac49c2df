package mqconsume

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var errDropped = errors.New("connection dropped")

// step is one scripted result of Receive.
type step struct {
	msg *Message
	err error
}

func msgStep(payload string) step {
	return step{msg: &Message{Payload: []byte(payload)}}
}

func dropStep() step {
	return step{err: ConnectionError("get", errDropped)}
}

// fakeDialer fails the first `failures` connects, then hands out one fakeConn
// per successful connect, each scripted with the next entry of sessions.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	connErr  error
	openErr  error
	sessions [][]step

	// ignoreCtx makes Receive block for the full wait like a real MQGET
	ignoreCtx bool

	attempts int
	conns    []*fakeConn
}

func (d *fakeDialer) Connect(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts++
	if d.failures > 0 {
		d.failures--
		err := d.connErr
		if err == nil {
			err = ConnectionError("connect", errors.New("host not available"))
		}
		return nil, err
	}

	var steps []step
	if len(d.sessions) > 0 {
		steps = d.sessions[0]
		d.sessions = d.sessions[1:]
	}
	c := &fakeConn{steps: steps, openErr: d.openErr, ignoreCtx: d.ignoreCtx}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDialer) Conns() []*fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeConn(nil), d.conns...)
}

type fakeConn struct {
	steps     []step
	openErr   error
	ignoreCtx bool

	disconnects atomic.Int32
	queue       *fakeQueue
	name        string
	mode        OpenMode
}

func (c *fakeConn) OpenQueue(name string, mode OpenMode) (Queue, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.name, c.mode = name, mode
	c.queue = &fakeQueue{steps: c.steps, ignoreCtx: c.ignoreCtx}
	return c.queue, nil
}

func (c *fakeConn) Disconnect() error {
	c.disconnects.Add(1)
	return nil
}

func (c *fakeConn) Disconnected() bool { return c.disconnects.Load() > 0 }

type fakeQueue struct {
	mu        sync.Mutex
	steps     []step
	ignoreCtx bool
	closes    atomic.Int32
}

func (q *fakeQueue) Receive(ctx context.Context, wait time.Duration) (*Message, bool, error) {
	q.mu.Lock()
	if len(q.steps) > 0 {
		s := q.steps[0]
		q.steps = q.steps[1:]
		q.mu.Unlock()
		if s.err != nil {
			return nil, false, s.err
		}
		return s.msg, true, nil
	}
	q.mu.Unlock()

	t := time.NewTimer(wait)
	defer t.Stop()
	if q.ignoreCtx {
		<-t.C
		return nil, false, nil
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-t.C:
		return nil, false, nil
	}
}

func (q *fakeQueue) Close() error {
	q.closes.Add(1)
	return nil
}

func (q *fakeQueue) Closed() bool { return q.closes.Load() > 0 }

// collector is a Sink recording every message it receives.
type collector struct {
	mu   sync.Mutex
	msgs []*Message
}

func (c *collector) Sink(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, m.Text)
	}
	return out
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

type fakeTx struct {
	commits   atomic.Int32
	rollbacks atomic.Int32
}

func (t *fakeTx) Commit() error   { t.commits.Add(1); return nil }
func (t *fakeTx) Rollback() error { t.rollbacks.Add(1); return nil }

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.TraceLevel)
	return logrus.NewEntry(l)
}

// runAsync starts Run in its own goroutine.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}
