package subscriptions_fx

import (
	"go.uber.org/fx"

	"reportly/internal/api/controllers"
	"reportly/internal/services"
)

var Module = fx.Provide(
	services.NewSubscriptionService,
	controllers.NewSubscriptionController,
)
