package components

import (
	"context"

	"fleetbook/internal/infra/audit"
	"fleetbook/internal/infra/db"
	"fleetbook/internal/infra/payment"
	"fleetbook/internal/infra/readstore"
	"fleetbook/internal/infra/uow"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/queries"
	"fleetbook/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
			fx.As(new(queries.ConflictReadStore)),
		),
		NewPaymentClient,
		NewAuditSink,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewPaymentClient(cfg config.Config) shared.PaymentProcessor {
	return payment.NewClient(cfg.Payment)
}

func NewAuditSink(lc fx.Lifecycle, pool *pgxpool.Pool, cfg config.Config) shared.AuditSink {
	sink := audit.NewSink(pool, cfg.Audit)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sink.Close()
			return nil
		},
	})
	return sink
}
