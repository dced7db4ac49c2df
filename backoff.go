package mqconsume

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// boundedBackOff keeps a jittered schedule non-decreasing and never above max.
type boundedBackOff struct {
	b    backoff.BackOff
	max  time.Duration
	prev time.Duration
}

func (b *boundedBackOff) NextBackOff() time.Duration {
	d := b.b.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if d > b.max {
		d = b.max
	}
	if d < b.prev {
		d = b.prev
	}
	b.prev = d
	return d
}

func (b *boundedBackOff) Reset() {
	b.b.Reset()
	b.prev = 0
}
