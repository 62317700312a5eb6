package sweep_fx

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"reportly/internal/services"
)

var Module = fx.Options(
	fx.Provide(services.NewSweepService),
	fx.Invoke(registerSweepCron),
)

// expirySchedule runs the overdue-subscription sweep daily at 02:00, after
// the billing day has rolled over everywhere the gateway settles.
const expirySchedule = "0 0 2 * * *"

func registerSweepCron(lc fx.Lifecycle, sweep services.SweepService) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(expirySchedule, func() {
		expired, err := sweep.ExpireOverdue(context.Background())
		if err != nil {
			log.Printf("Subscription expiry sweep failed: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("Subscription expiry sweep marked %d subscriptions expired", expired)
		}
	})
	if err != nil {
		log.Printf("Failed to schedule subscription expiry sweep: %v", err)
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
}
