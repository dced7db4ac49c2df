package mqconsume

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunGroup runs one independent loop per consumer. The first terminal error
// stops the others and is returned. When ctx is cancelled every loop shuts
// down and the result matches ErrCancelled.
func RunGroup(ctx context.Context, consumers ...*Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		c := c
		g.Go(func() error {
			return c.Run(gctx)
		})
	}
	return g.Wait()
}
