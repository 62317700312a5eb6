package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"reportly/cmd/fx/config_fx"
	"reportly/cmd/fx/db_fx"
	"reportly/cmd/fx/mail_fx"
	"reportly/cmd/fx/payment_fx"
	"reportly/cmd/fx/plans_fx"
	"reportly/cmd/fx/repositories_fx"
	"reportly/cmd/fx/subscriptions_fx"
	"reportly/cmd/fx/sweep_fx"
	"reportly/cmd/fx/tasks_fx"
	"reportly/internal/api/controllers"
	"reportly/internal/infra"
	"reportly/pkg/middleware"
)

func main() {
	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		repositories_fx.Module,
		tasks_fx.Module,
		mail_fx.Module,
		payment_fx.Module,
		plans_fx.Module,
		subscriptions_fx.Module,
		sweep_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *infra.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Printf("Starting HTTP server on :%s", cfg.Port)
				if err := engine.Run(":" + cfg.Port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	cfg *infra.Config,
	paymentController *controllers.PaymentController,
	plansController *controllers.PlansController,
	subscriptionController *controllers.SubscriptionController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, cfg, paymentController, plansController, subscriptionController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	cfg *infra.Config,
	paymentController *controllers.PaymentController,
	plansController *controllers.PlansController,
	subscriptionController *controllers.SubscriptionController) {

	r.GET("/plans", plansController.ListPlans)

	paymentsGroup := r.Group("/payments")
	paymentsGroup.POST("/checkout", middleware.JWTAuthMiddleware(cfg.JWTSecret), paymentController.CreateCheckout)
	paymentsGroup.POST("/webhook", paymentController.Webhook)
	paymentsGroup.POST("/success", paymentController.SuccessReturn)
	paymentsGroup.POST("/failure", paymentController.FailureReturn)

	subscriptionsGroup := r.Group("/subscriptions")
	subscriptionsGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	subscriptionsGroup.POST("/cancel", subscriptionController.Cancel)
	subscriptionsGroup.GET("/me", subscriptionController.Status)
}
