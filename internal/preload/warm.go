package preload

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WarmAll fetches every slot in parallel with a bounded group. It is an
// offline helper for tooling that pre-populates caches; the runtime path
// stays strictly sequential.
func (l *Loader) WarmAll(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range l.slots {
		i := i
		g.Go(func() error {
			img, err := l.fetch.Fetch(ctx, l.slots[i].url)
			if err != nil {
				return err
			}
			l.mu.Lock()
			l.keep(i, img)
			l.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
