package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"reportly/internal/infra"
)

var Module = fx.Provide(
	provideDB,
	infra.NewTxRunner,
)

func provideDB(lc fx.Lifecycle, cfg *infra.Config) *gorm.DB {
	db := infra.InitPostgresql(cfg)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db)
			return nil
		},
	})

	return db
}
