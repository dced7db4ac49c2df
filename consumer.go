package mqconsume

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Consumer reads one queue over one connection and hands every message to a
// Sink. All queue manager handles are owned by the goroutine running Run.
type Consumer struct {
	id     string
	queue  string
	cfg    Config
	dialer Dialer
	sink   Sink
	log    *logrus.Entry

	state atomic.Int32
	stats stats

	m    sync.Mutex
	conn Conn
	q    Queue

	connectedOnce bool

	// test hooks
	sleep      func(ctx context.Context, d time.Duration) bool
	newBackOff func() backoff.BackOff
}

// Stats counters of a Consumer.
type Stats struct {
	ConnectAttempts uint64 `json:"connect_attempts"`
	Reconnects      uint64 `json:"reconnects"`
	Received        uint64 `json:"received"`
	DecodeFailures  uint64 `json:"decode_failures"`
}

type stats struct {
	connectAttempts atomic.Uint64
	reconnects      atomic.Uint64
	received        atomic.Uint64
	decodeFailures  atomic.Uint64
}

// New builds a Consumer for queue. Nothing is connected until Run.
func New(queue string, dialer Dialer, sink Sink, opts ...Option) (*Consumer, error) {
	if strings.TrimSpace(queue) == "" {
		return nil, ErrEmptyQueueName
	}
	if dialer == nil {
		return nil, ErrNoDialer
	}
	if sink == nil {
		return nil, ErrNoSink
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.setDefaults()

	c := &Consumer{
		id:     uuid.NewString(),
		queue:  queue,
		cfg:    cfg,
		dialer: dialer,
		sink:   sink,
		sleep:  sleepCtx,
	}
	c.log = cfg.Logger.WithFields(logrus.Fields{"queue": queue, "consumer": c.id})
	c.newBackOff = c.exponentialBackOff
	c.setState(StateDisconnected)

	return c, nil
}

func (c *Consumer) ID() string { return c.id }

func (c *Consumer) Queue() string { return c.queue }

func (c *Consumer) Stats() Stats {
	return Stats{
		ConnectAttempts: c.stats.connectAttempts.Load(),
		Reconnects:      c.stats.reconnects.Load(),
		Received:        c.stats.received.Load(),
		DecodeFailures:  c.stats.decodeFailures.Load(),
	}
}

// Run consumes until ctx is cancelled or a non-retryable error occurs.
// On cancellation it returns an error matching ErrCancelled and
// context.Canceled; any other returned error is terminal. The queue handle and
// the connection are released on every path.
func (c *Consumer) Run(ctx context.Context) error {
	l := c.log.WithField("method", "Run")
	defer c.Disconnect()

	l.Infof("Starting consumer, mode=%s", c.cfg.Mode)
	bo := c.newBackOff()

	for {
		if err := ctx.Err(); err != nil {
			return c.shutdown(err)
		}

		if !c.isConnected() {
			err := c.connect(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.shutdown(ctx.Err())
				}
				if !IsRetryable(err) {
					return c.giveUp(err)
				}
				delay := bo.NextBackOff()
				l.Warnf("connect error: %v (will retry in %s)", err, delay)
				if !c.sleep(ctx, delay) {
					return c.shutdown(ctx.Err())
				}
				continue
			}
			bo.Reset()
		}

		c.setState(StateWaitingForMessage)
		msg, ok, err := c.q.Receive(ctx, c.cfg.WaitInterval)
		if err != nil {
			if ctx.Err() != nil {
				return c.shutdown(ctx.Err())
			}
			switch KindOf(err) {
			case KindConnection:
				l.Warnf("connection lost: %v (will reconnect)", err)
				c.setState(StateDisconnected)
				c.Disconnect()
				continue
			case KindDecode:
				c.reject(err, msg)
				continue
			case KindCancelled:
				return c.shutdown(err)
			default:
				return c.giveUp(err)
			}
		}
		if !ok {
			l.Trace("No message")
			continue
		}

		c.setState(StateConnected)
		c.deliver(msg)
	}
}

// Disconnect closes the queue and the connection if they are open. Release
// errors are logged. Calling it again is a no-op. It must not be called while
// Run is active; cancel Run's context instead.
func (c *Consumer) Disconnect() {
	c.m.Lock()
	defer c.m.Unlock()

	if c.q != nil {
		if err := c.q.Close(); err != nil {
			c.log.Warnf("close queue: %v", err)
		}
		c.q = nil
	}
	if c.conn != nil {
		if err := c.conn.Disconnect(); err != nil {
			c.log.Warnf("disconnect: %v", err)
		}
		c.conn = nil
		c.log.Info("Disconnected")
	}
}

func (c *Consumer) isConnected() bool {
	c.m.Lock()
	defer c.m.Unlock()

	return c.q != nil
}

func (c *Consumer) connect(ctx context.Context) error {
	c.setState(StateDisconnected)

	attempt := c.stats.connectAttempts.Add(1)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ConnectAttempts.WithLabelValues(c.queue).Inc()
	}
	c.log.Infof("Attempting connection %d", attempt)

	conn, err := c.dialer.Connect(ctx)
	if err != nil {
		return err
	}

	q, err := conn.OpenQueue(c.queue, c.cfg.Mode)
	if err != nil {
		if derr := conn.Disconnect(); derr != nil {
			c.log.Warnf("disconnect after failed open: %v", derr)
		}
		return err
	}

	c.m.Lock()
	c.conn, c.q = conn, q
	c.m.Unlock()

	if c.connectedOnce {
		if c.cfg.Mode == ModeBrowse {
			c.log.Warn("Browse cursor restarted, messages seen before the reconnect are delivered again")
		}
		c.stats.reconnects.Add(1)
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.Reconnects.WithLabelValues(c.queue).Inc()
		}
	}
	c.connectedOnce = true

	c.setState(StateConnected)
	c.log.Info("Queue opened")
	return nil
}

// deliver decodes msg and passes it to the sink. A message read under
// syncpoint is committed once the sink returns.
func (c *Consumer) deliver(msg *Message) {
	c.stats.received.Add(1)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Received.WithLabelValues(c.queue).Inc()
	}

	if msg.ArrivedAt.IsZero() {
		msg.ArrivedAt = time.Now()
	}
	if msg.Length == 0 {
		msg.Length = len(msg.Payload)
	}

	if err := c.cfg.Decoder.Decode(msg); err != nil {
		if KindOf(err) != KindDecode {
			err = DecodeError(err)
		}
		c.reject(err, msg)
		return
	}

	tx := msg.Tx
	c.sink(msg)
	c.commit(tx, msg.MsgID)
}

// reject reports an undecodable message and drops it for good.
func (c *Consumer) reject(err error, msg *Message) {
	c.stats.decodeFailures.Add(1)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.DecodeFailed.WithLabelValues(c.queue).Inc()
	}

	var le *LoopError
	if errors.As(err, &le) && le.Queue == "" {
		le.Queue = c.queue
	}
	c.cfg.ErrorSink(err, msg)

	if msg != nil {
		c.commit(msg.Tx, msg.MsgID)
	}
}

func (c *Consumer) commit(tx Tx, id MsgID) {
	if tx == nil {
		return
	}
	if err := tx.Commit(); err != nil {
		c.log.WithField("msgId", hex.EncodeToString(id)).Warnf("commit: %v", err)
	}
}

func (c *Consumer) shutdown(cause error) error {
	c.setState(StateShuttingDown)
	c.log.Info("Shutting down")
	return cancelledError(c.queue, cause)
}

func (c *Consumer) giveUp(err error) error {
	c.setState(StateDisconnected)
	c.log.Errorf("gave up: %v", err)

	var le *LoopError
	if errors.As(err, &le) {
		if le.Queue == "" {
			le.Queue = c.queue
		}
		return err
	}
	return &LoopError{Kind: KindProtocol, Op: "run", Queue: c.queue, Err: err}
}

func (c *Consumer) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffBase
	b.MaxInterval = c.cfg.BackoffMax
	b.Multiplier = 2
	b.RandomizationFactor = c.cfg.BackoffJitter
	b.MaxElapsedTime = 0
	b.Reset()
	return &boundedBackOff{b: b, max: c.cfg.BackoffMax}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
