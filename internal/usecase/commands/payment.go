package commands

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/domain/booking"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotInitiated = errs.New("payment not initiated")
	ErrBookingNotPayable   = errs.New("booking not payable")
)

const refundRetryAttempts = 3

type InitiatePaymentResult struct {
	PaymentRef  string
	AmountCents int64
	Currency    string
}

type ConfirmPaymentResult struct {
	PaymentStatus booking.PaymentStatus
	BookingStatus booking.Status
}

// PaymentNotification is a processor callback already verified by the
// transport layer.
type PaymentNotification struct {
	PaymentRef string
	Status     shared.IntentStatus
}

type PaymentCommands interface {
	Initiate(ctx context.Context, bookingID uuid.UUID, act actor.Actor) (*InitiatePaymentResult, error)
	Confirm(ctx context.Context, bookingID uuid.UUID, act actor.Actor) (*ConfirmPaymentResult, error)
	HandleNotification(ctx context.Context, notif PaymentNotification) error
	Refund(ctx context.Context, bookingID uuid.UUID, reason string, act actor.Actor) error
}

type paymentUseCaseImpl struct {
	uow       shared.UnitOfWork
	processor shared.PaymentProcessor
	audit     shared.AuditSink
	currency  string
	clock     clock.Clock
}

func NewPaymentUseCase(
	uow shared.UnitOfWork,
	processor shared.PaymentProcessor,
	audit shared.AuditSink,
	currency string,
	clk clock.Clock,
) PaymentCommands {
	return &paymentUseCaseImpl{
		uow:       uow,
		processor: processor,
		audit:     audit,
		currency:  currency,
		clock:     clk,
	}
}

// Initiate opens a payment intent for a booking. Re-initiating while the
// payment is still open returns the existing reference instead of opening a
// second intent. The processor call happens outside any transaction so a
// slow processor never holds a row lock.
func (uc *paymentUseCaseImpl) Initiate(ctx context.Context, bookingID uuid.UUID, act actor.Actor) (*InitiatePaymentResult, error) {
	var (
		amountCents   int64
		existingRef   *string
		paymentStatus booking.PaymentStatus
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if !act.CanActOn(entity.CustomerID()) {
			return ErrBookingNotOwned
		}
		if entity.IsPaid() {
			return booking.ErrAlreadyPaid
		}
		switch entity.Status() {
		case booking.StatusCancelled, booking.StatusCompleted:
			return ErrBookingNotPayable
		}
		amountCents = entity.Pricing().TotalAmount.Cents()
		existingRef = entity.PaymentRef()
		paymentStatus = entity.PaymentStatus()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if existingRef != nil && paymentStatus == booking.PaymentPending {
		return &InitiatePaymentResult{
			PaymentRef:  *existingRef,
			AmountCents: amountCents,
			Currency:    uc.currency,
		}, nil
	}

	ref, err := uc.processor.OpenIntent(ctx, amountCents, uc.currency, map[string]string{
		"booking_id":  bookingID.String(),
		"customer_id": act.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if txErr = entity.AttachPaymentRef(ref, uc.clock.Now()); txErr != nil {
			return txErr
		}
		return tx.Bookings().Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Emit(shared.AuditEvent{
		Action:    shared.AuditPaymentInitiated,
		ActorID:   act.ID,
		BookingID: bookingID,
		Details: map[string]any{
			"payment_ref":  ref,
			"amount_cents": amountCents,
			"currency":     uc.currency,
		},
		OccurredAt: uc.clock.Now(),
	})

	return &InitiatePaymentResult{
		PaymentRef:  ref,
		AmountCents: amountCents,
		Currency:    uc.currency,
	}, nil
}

// Confirm polls the processor for the intent outcome and applies it. A
// booking that is already paid short-circuits without contacting the
// processor, so confirming twice is safe.
func (uc *paymentUseCaseImpl) Confirm(ctx context.Context, bookingID uuid.UUID, act actor.Actor) (*ConfirmPaymentResult, error) {
	var (
		ref     string
		settled *ConfirmPaymentResult
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if !act.CanActOn(entity.CustomerID()) {
			return ErrBookingNotOwned
		}
		if entity.PaymentRef() == nil {
			return ErrPaymentNotInitiated
		}
		if entity.IsPaid() {
			settled = &ConfirmPaymentResult{
				PaymentStatus: entity.PaymentStatus(),
				BookingStatus: entity.Status(),
			}
			return nil
		}
		ref = *entity.PaymentRef()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled != nil {
		return settled, nil
	}

	intentStatus, err := uc.processor.QueryIntent(ctx, ref)
	if err != nil {
		return nil, err
	}

	return uc.applyOutcome(ctx, bookingID, ref, intentStatus, act.ID)
}

// HandleNotification applies a processor callback keyed on the payment
// reference. Redeliveries are no-ops and a failure notification never
// regresses a paid booking.
func (uc *paymentUseCaseImpl) HandleNotification(ctx context.Context, notif PaymentNotification) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := tx.Bookings().FindByPaymentRefForUpdate(ctx, notif.PaymentRef)
		if txErr != nil {
			if infra.IsKind(txErr, infra.KindNotFound) {
				return ErrBookingNotFoundWrite
			}
			return errs.Mark(txErr, ErrDatabaseOperationFailed)
		}
		return uc.applyOutcomeLocked(ctx, tx, entity, notif.PaymentRef, notif.Status, uuid.Nil)
	})
	return err
}

func (uc *paymentUseCaseImpl) Refund(ctx context.Context, bookingID uuid.UUID, reason string, act actor.Actor) error {
	if !act.Role.IsAdmin() {
		return ErrBookingNotOwned
	}

	var ref string
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if !entity.IsPaid() || entity.PaymentRef() == nil {
			return booking.ErrNotPaid
		}
		ref = *entity.PaymentRef()
		return nil
	})
	if err != nil {
		return err
	}

	if err = uc.refundWithRetry(ctx, ref); err != nil {
		return err
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if txErr = entity.MarkRefunded(reason, uc.clock.Now()); txErr != nil {
			// Concurrent refund already landed
			if errors.Is(txErr, booking.ErrNotPaid) && entity.PaymentStatus() == booking.PaymentRefunded {
				return nil
			}
			return txErr
		}
		return tx.Bookings().Update(ctx, entity)
	})
	if err != nil {
		return err
	}

	uc.audit.Emit(shared.AuditEvent{
		Action:    shared.AuditPaymentRefund,
		ActorID:   act.ID,
		BookingID: bookingID,
		Details: map[string]any{
			"payment_ref": ref,
			"reason":      reason,
		},
		OccurredAt: uc.clock.Now(),
	})
	return nil
}

// Only transport-level failures are worth retrying; a processor that
// answered and declined will decline again.
func (uc *paymentUseCaseImpl) refundWithRetry(ctx context.Context, ref string) error {
	var err error
	for attempt := 0; attempt < refundRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		err = uc.processor.Refund(ctx, ref)
		if err == nil || !errors.Is(err, shared.ErrProcessorUnavailable) {
			return err
		}
	}
	return err
}

func (uc *paymentUseCaseImpl) applyOutcome(
	ctx context.Context,
	bookingID uuid.UUID,
	ref string,
	status shared.IntentStatus,
	actorID uuid.UUID,
) (*ConfirmPaymentResult, error) {
	var result *ConfirmPaymentResult
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := uc.lockBooking(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if txErr = uc.applyOutcomeLocked(ctx, tx, entity, ref, status, actorID); txErr != nil {
			return txErr
		}
		result = &ConfirmPaymentResult{
			PaymentStatus: entity.PaymentStatus(),
			BookingStatus: entity.Status(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *paymentUseCaseImpl) applyOutcomeLocked(
	ctx context.Context,
	tx shared.Tx,
	entity *booking.Booking,
	ref string,
	status shared.IntentStatus,
	actorID uuid.UUID,
) error {
	switch status {
	case shared.IntentSucceeded:
		if err := entity.MarkPaid(ref, uc.clock.Now()); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, entity); err != nil {
			return err
		}
		uc.audit.Emit(shared.AuditEvent{
			Action:     shared.AuditPaymentSuccess,
			ActorID:    actorID,
			BookingID:  entity.ID(),
			Details:    map[string]any{"payment_ref": ref},
			OccurredAt: uc.clock.Now(),
		})
	case shared.IntentFailed:
		if entity.IsPaid() {
			return nil
		}
		entity.MarkPaymentFailed(uc.clock.Now())
		if err := tx.Bookings().Update(ctx, entity); err != nil {
			return err
		}
		uc.audit.Emit(shared.AuditEvent{
			Action:     shared.AuditPaymentFailed,
			ActorID:    actorID,
			BookingID:  entity.ID(),
			Details:    map[string]any{"payment_ref": ref},
			OccurredAt: uc.clock.Now(),
		})
	case shared.IntentPending:
		// Nothing to apply yet
	}
	return nil
}

func (uc *paymentUseCaseImpl) lockBooking(ctx context.Context, tx shared.Tx, bookingID uuid.UUID) (*booking.Booking, error) {
	entity, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFoundWrite
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return entity, nil
}
