package mqconsume

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBackoffBase first delay after a failed connect
	DefaultBackoffBase = 500 * time.Millisecond

	// DefaultBackoffMax upper bound of the reconnect delay
	DefaultBackoffMax = 30 * time.Second

	// DefaultBackoffJitter randomization factor applied to every delay
	DefaultBackoffJitter = 0.5

	// DefaultWaitInterval longest single wait for a message. Cancellation is
	// observed at least this often.
	DefaultWaitInterval = 3 * time.Second

	EncodingUTF8 = 1208
)

var (
	ErrEmptyQueueName = errors.New("mq consume: empty queue name")
	ErrNoDialer       = errors.New("mq consume: no dialer")
	ErrNoSink         = errors.New("mq consume: no sink")
)

// Config tunes a Consumer. Zero values take the defaults.
type Config struct {
	// WaitInterval bounds each Receive call.
	WaitInterval time.Duration

	BackoffBase time.Duration
	BackoffMax  time.Duration

	// BackoffJitter in [0, 1). Zero disables jitter.
	BackoffJitter float64

	Mode OpenMode

	// logger set by the caller, otherwise one is created inside mqconsume
	Logger *logrus.Entry

	Decoder   Decoder
	ErrorSink ErrorSink
	Metrics   *Metrics
}

type Option func(*Config)

func WithLogger(log *logrus.Entry) Option {
	return func(c *Config) { c.Logger = log }
}

func WithWaitInterval(d time.Duration) Option {
	return func(c *Config) { c.WaitInterval = d }
}

// WithBackoff sets the reconnect schedule. A negative jitter disables randomization.
func WithBackoff(base, max time.Duration, jitter float64) Option {
	return func(c *Config) {
		c.BackoffBase = base
		c.BackoffMax = max
		c.BackoffJitter = jitter
	}
}

func WithDecoder(d Decoder) Option {
	return func(c *Config) { c.Decoder = d }
}

func WithErrorSink(s ErrorSink) Option {
	return func(c *Config) { c.ErrorSink = s }
}

func WithOpenMode(m OpenMode) Option {
	return func(c *Config) { c.Mode = m }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

func (c *Config) setDefaults() {
	if c.WaitInterval <= 0 {
		c.WaitInterval = DefaultWaitInterval
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	switch {
	case c.BackoffJitter < 0:
		c.BackoffJitter = 0
	case c.BackoffJitter == 0:
		c.BackoffJitter = DefaultBackoffJitter
	case c.BackoffJitter >= 1:
		c.BackoffJitter = 0.99
	}
	if c.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.InfoLevel)
		c.Logger = logrus.NewEntry(l).WithField("pkg", "mqconsume")
	}
	if c.Decoder == nil {
		c.Decoder = TextDecoder{}
	}
	if c.ErrorSink == nil {
		c.ErrorSink = LogErrors(c.Logger)
	}
}
