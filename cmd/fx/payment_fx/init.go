package payment_fx

import (
	"go.uber.org/fx"

	"reportly/internal/api/controllers"
	"reportly/internal/gateway"
	"reportly/internal/infra"
	"reportly/internal/repositories"
	"reportly/internal/services"
)

var Module = fx.Provide(
	provideOrderIssuer,
	provideCheckoutService,
	provideReconcilerService,
	providePaymentController,
)

func provideOrderIssuer(cfg *infra.Config) *gateway.OrderIssuer {
	return gateway.NewOrderIssuer(cfg.Gateway)
}

func provideCheckoutService(
	users repositories.UserRepository,
	plans repositories.PlanRepository,
	issuer *gateway.OrderIssuer,
	cfg *infra.Config,
) services.CheckoutService {
	return services.NewCheckoutService(users, plans, issuer, cfg.Gateway)
}

func provideReconcilerService(
	cfg *infra.Config,
	txRunner infra.TxRunner,
	payments repositories.PaymentStore,
	ledger repositories.SubscriptionLedger,
	users repositories.UserRepository,
	plans repositories.PlanRepository,
	tasks *services.BackgroundTaskRunner,
	invoices services.InvoiceService,
	mail services.IMailService,
) services.ReconcilerService {
	return services.NewReconcilerService(
		cfg.Gateway, txRunner, payments, ledger, users, plans, tasks, invoices, mail, cfg.SMTP.AppName)
}

func providePaymentController(
	checkout services.CheckoutService,
	reconciler services.ReconcilerService,
	cfg *infra.Config,
) *controllers.PaymentController {
	return controllers.NewPaymentController(checkout, reconciler, cfg.SuccessPageURL, cfg.FailurePageURL)
}
