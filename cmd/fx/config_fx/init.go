package config_fx

import (
	"go.uber.org/fx"

	"reportly/internal/infra"
)

var Module = fx.Provide(infra.LoadConfig)
