package components

import (
	"fleetbook/internal/domain/booking"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"
	"fleetbook/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		booking.NewStandardCalculator,
		fx.As(new(booking.PriceCalculator)),
	),
	booking.NewFactory,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingUseCase,
		NewPaymentUseCase,
	),
)

func NewPaymentUseCase(
	uow shared.UnitOfWork,
	processor shared.PaymentProcessor,
	audit shared.AuditSink,
	cfg config.Config,
	clk clock.Clock,
) commands.PaymentCommands {
	return commands.NewPaymentUseCase(uow, processor, audit, cfg.Payment.Currency, clk)
}
