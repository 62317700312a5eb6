package mail_fx

import (
	"log"

	"go.uber.org/fx"

	"reportly/internal/infra"
	"reportly/internal/services"
)

var Module = fx.Provide(
	provideMailService,
	services.NewInvoiceService,
)

func provideMailService(cfg *infra.Config) services.IMailService {
	mailService, err := services.NewSMTPMailService(cfg.SMTP)
	if err != nil {
		log.Printf("Failed to initialize SMTP mail service: %v", err)
	}

	return mailService
}
