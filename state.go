package mqconsume

// LoopState is the lifecycle position of a Consumer.
type LoopState int32

const (
	StateDisconnected LoopState = iota
	StateConnected
	StateWaitingForMessage
	StateShuttingDown
)

func (s LoopState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateWaitingForMessage:
		return "waiting"
	case StateShuttingDown:
		return "shutting_down"
	}
	return "unknown"
}

// Healthy is true while the loop holds an open queue.
func (s LoopState) Healthy() bool {
	return s == StateConnected || s == StateWaitingForMessage
}

func (c *Consumer) setState(s LoopState) {
	c.state.Store(int32(s))
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.State.WithLabelValues(c.queue).Set(float64(s))
	}
}

// State can be read from any goroutine.
func (c *Consumer) State() LoopState {
	return LoopState(c.state.Load())
}
