package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cartbox/internal/scene"
)

// Ensemble runs independent simulations concurrently. Every run gets its own
// controller and its own metrics from the factory.
type Ensemble struct {
	opts    scene.Options
	metrics func() []Metric
	limit   int
}

func NewEnsemble(opts scene.Options, metrics func() []Metric, limit int) *Ensemble {
	return &Ensemble{opts: opts, metrics: metrics, limit: limit}
}

// Run simulates every parameter set and returns results in input order.
func (e *Ensemble) Run(ctx context.Context, params []scene.Params, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(params))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, p := range params {
		g.Go(func() error {
			s := New(e.opts)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			res, err := s.Run(ctx, p, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
