package tasks_fx

import (
	"context"
	"time"

	"go.uber.org/fx"

	"reportly/internal/infra"
	"reportly/internal/services"
)

var Module = fx.Provide(provideTaskRunner)

// drainTimeout bounds shutdown: queued receipt jobs get this long to finish
// before being abandoned (the financial state they depend on is already
// durable either way).
const drainTimeout = 15 * time.Second

func provideTaskRunner(lc fx.Lifecycle, cfg *infra.Config) *services.BackgroundTaskRunner {
	runner := services.NewTaskRunner(cfg.TaskQueueSize, cfg.TaskWorkers)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
			defer cancel()
			return runner.Stop(drainCtx)
		},
	})

	return runner
}
