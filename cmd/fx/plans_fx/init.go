package plans_fx

import (
	"go.uber.org/fx"

	"reportly/internal/api/controllers"
	"reportly/internal/services"
)

var Module = fx.Provide(
	services.NewPlanService,
	controllers.NewPlansController,
)
