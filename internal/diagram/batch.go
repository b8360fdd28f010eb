package diagram

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RenderAll renders the controllers concurrently, at most limit at a time.
// A failing diagram only fails its own controller.
func RenderAll(ctx context.Context, controllers []*Controller, limit int) []Snapshot {
	snapshots := make([]Snapshot, len(controllers))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, controller := range controllers {
		g.Go(func() error {
			snapshots[i] = controller.Render(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return snapshots
}

// NewControllers creates one controller per diagram source.
func NewControllers(renderer Renderer, sources []string) []*Controller {
	controllers := make([]*Controller, 0, len(sources))
	for _, source := range sources {
		controllers = append(controllers, NewController(renderer, source))
	}
	return controllers
}
