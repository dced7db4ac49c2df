package mqconsume

import "github.com/prometheus/client_golang/prometheus"

// Metrics are labelled by queue name.
type Metrics struct {
	Received        *prometheus.CounterVec
	DecodeFailed    *prometheus.CounterVec
	ConnectAttempts *prometheus.CounterVec
	Reconnects      *prometheus.CounterVec
	State           *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Received: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq_messages_received_total",
				Help: "Number of messages read from the queue",
			},
			[]string{"queue"},
		),
		DecodeFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq_messages_decode_failed_total",
				Help: "Number of messages skipped because the payload could not be decoded",
			},
			[]string{"queue"},
		),
		ConnectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq_connect_attempts_total",
				Help: "Number of connection attempts to the queue manager",
			},
			[]string{"queue"},
		),
		Reconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq_reconnects_total",
				Help: "Number of successful connections after the first one",
			},
			[]string{"queue"},
		),
		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mq_loop_state",
				Help: "Consumer state: 0 disconnected, 1 connected, 2 waiting, 3 shutting down",
			},
			[]string{"queue"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Received, m.DecodeFailed, m.ConnectAttempts, m.Reconnects, m.State)
	}
	return m
}
