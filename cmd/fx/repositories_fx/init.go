package repositories_fx

import (
	"go.uber.org/fx"

	"reportly/internal/repositories"
)

var Module = fx.Provide(
	repositories.NewPaymentRepository,
	repositories.NewSubscriptionRepository,
	repositories.NewUserRepository,
	repositories.NewPlanRepository,
)
