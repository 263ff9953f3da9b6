package components

import (
	"fleetbook/internal/handler"
	"fleetbook/internal/handler/api"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/commands"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		NewPaymentHandler,
		api.NewAvailabilityHandler,
		api.NewAdminHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewPaymentHandler(paymentCommands commands.PaymentCommands, cfg config.Config) *api.PaymentHandler {
	return api.NewPaymentHandler(paymentCommands, cfg.Payment.WebhookSecret)
}
