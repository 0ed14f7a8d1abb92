package app

import (
	"context"
	"log/slog"
)

// step is one unit of work of a multi-part order change. Each step must be
// able to undo its own effect.
type step struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context)
}

// runSteps executes steps in order. When one fails, the steps that already
// succeeded are compensated in reverse order and the failure is returned.
func runSteps(ctx context.Context, orderID string, steps ...step) error {
	done := make([]step, 0, len(steps))
	for _, s := range steps {
		if err := s.execute(ctx); err != nil {
			slog.WarnContext(ctx, "order step failed, compensating", "order_id", orderID, "step", s.name, "error", err)
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate != nil {
					slog.InfoContext(ctx, "compensating step", "order_id", orderID, "step", done[i].name)
					done[i].compensate(ctx)
				}
			}
			return err
		}
		done = append(done, s)
	}
	return nil
}
