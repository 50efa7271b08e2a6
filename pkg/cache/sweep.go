package cache

import (
	"context"
	"time"
)

type Sweeper interface {
	Name() string
	SweepExpired() int
}

// RunSweeper drops expired entries from every cache each interval until ctx
// is done. report, when set, is called with each cache's name and drop count.
func RunSweeper(ctx context.Context, interval time.Duration, report func(name string, dropped int), caches ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range caches {
				dropped := c.SweepExpired()
				if report != nil && dropped > 0 {
					report(c.Name(), dropped)
				}
			}
		}
	}
}
