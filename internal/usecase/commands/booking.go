package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/domain/booking"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/queries"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrVehicleNotFound         = errs.New("vehicle not found")
	ErrBookingNotFoundWrite    = errs.New("booking not found")
	ErrBookingNotOwned         = errs.New("booking not owned by customer")
	ErrBookingConflict         = errs.New("booking conflict")
	ErrDuplicateBooking        = errs.New("duplicate booking request")
	ErrIdempotencyInProgress   = errs.New("idempotency in progress")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type AddOnRequest struct {
	ID       uuid.UUID
	Quantity int
}

type QuoteRequest struct {
	VehicleID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	AddOns    []AddOnRequest
}

type CreateBookingRequest struct {
	VehicleID       uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	AddOns          []AddOnRequest
	PickupLocation  string
	DropoffLocation string
	Note            string
}

type CreateBookingResult struct {
	Booking    *queries.BookingView
	IsReplayed bool
}

type BookingCommands interface {
	PreviewPrice(ctx context.Context, req QuoteRequest) (*booking.Quote, error)
	CreateBooking(ctx context.Context, req CreateBookingRequest, act actor.Actor, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string, act actor.Actor) error
	SetStatus(ctx context.Context, bookingID uuid.UUID, status string, reason string, act actor.Actor) error
}

type bookingUseCaseImpl struct {
	uow            shared.UnitOfWork
	bookingFactory *booking.Factory
	bookingQueries queries.BookingQueries
	audit          shared.AuditSink
	clock          clock.Clock
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	bookingFactory *booking.Factory,
	bookingQueries queries.BookingQueries,
	audit shared.AuditSink,
	clk clock.Clock,
) BookingCommands {
	return &bookingUseCaseImpl{
		uow:            uow,
		bookingFactory: bookingFactory,
		bookingQueries: bookingQueries,
		audit:          audit,
		clock:          clk,
	}
}

// PreviewPrice prices a prospective booking without reserving anything.
// Availability is not consulted, so a quoted slot can still be lost.
func (uc *bookingUseCaseImpl) PreviewPrice(ctx context.Context, req QuoteRequest) (*booking.Quote, error) {
	rng, err := booking.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	reads := uc.uow.CommandReads()
	vehicle, err := uc.resolveVehicle(ctx, reads, req.VehicleID)
	if err != nil {
		return nil, err
	}
	addOns, err := uc.resolveAddOns(ctx, reads, req.AddOns)
	if err != nil {
		return nil, err
	}

	quote, err := uc.bookingFactory.PriceQuote(vehicle, rng, addOns)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (uc *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	req CreateBookingRequest,
	act actor.Actor,
	idempotencyKey uuid.UUID,
) (*CreateBookingResult, error) {
	requestHash := uc.calculateRequestHash(req)
	expiresAt := uc.clock.Now().Add(24 * time.Hour)

	replayed, err := uc.handleIdempotency(ctx, idempotencyKey, act.ID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateBookingResult{Booking: replayed, IsReplayed: true}, nil
	}

	view, err := uc.createNewBooking(ctx, req, act, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &CreateBookingResult{Booking: view, IsReplayed: false}, nil
}

func (uc *bookingUseCaseImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, customerID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*queries.BookingView, error) {
	reads := uc.uow.CommandReads()

	var claimed bool
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var insertErr error
		claimed, insertErr = tx.Idempotency().TryInsert(ctx, idempotencyKey, customerID, "POST /bookings", requestHash, expiresAt)
		return insertErr
	})
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if claimed {
		// Fresh claim, proceed with creation
		return nil, nil
	}

	existing, err := reads.IdempotencyByKey(ctx, idempotencyKey, customerID)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	switch existing.Status {
	case shared.IdempotencyCompleted:
		if existing.ResultBookingID != nil {
			// System-level read: the replay response must match the original
			return uc.bookingQueries.GetByIDSystem(ctx, *existing.ResultBookingID)
		}
		return nil, errs.New("completed request missing result booking ID")

	case shared.IdempotencyProcessing:
		if existing.RequestHash != requestHash {
			return nil, ErrDuplicateBooking
		}
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (uc *bookingUseCaseImpl) createNewBooking(
	ctx context.Context,
	req CreateBookingRequest,
	act actor.Actor,
	idempotencyKey uuid.UUID,
) (*queries.BookingView, error) {
	rng, err := booking.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	reads := uc.uow.CommandReads()
	vehicle, err := uc.resolveVehicle(ctx, reads, req.VehicleID)
	if err != nil {
		return nil, err
	}
	addOns, err := uc.resolveAddOns(ctx, reads, req.AddOns)
	if err != nil {
		return nil, err
	}

	// Fast precheck. The exclusion constraint on bookings is what actually
	// holds the invariant under concurrent writers.
	conflict, err := reads.FirstConflict(ctx, req.VehicleID, rng)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if conflict != nil {
		return nil, ErrBookingConflict
	}

	entity, err := uc.bookingFactory.CreateBooking(
		vehicle,
		act.ID,
		rng,
		addOns,
		booking.NewLocation(req.PickupLocation),
		booking.NewLocation(req.DropoffLocation),
		booking.NewNote(req.Note),
	)
	if err != nil {
		return nil, err
	}

	var bookingID uuid.UUID
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, txErr := tx.Bookings().Create(ctx, entity)
		if txErr != nil {
			return txErr
		}
		bookingID = id
		return tx.Idempotency().MarkCompleted(ctx, idempotencyKey, act.ID, id)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil, ErrBookingConflict
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	uc.audit.Emit(shared.AuditEvent{
		Action:    shared.AuditBookingCreate,
		ActorID:   act.ID,
		BookingID: bookingID,
		Details: map[string]any{
			"vehicle_id":  req.VehicleID.String(),
			"start_date":  rng.Start().Format(time.RFC3339),
			"end_date":    rng.End().Format(time.RFC3339),
			"total_cents": entity.Pricing().TotalAmount.Cents(),
		},
		OccurredAt: uc.clock.Now(),
	})

	view, err := uc.bookingQueries.GetByIDSystem(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (uc *bookingUseCaseImpl) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string, act actor.Actor) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if txErr != nil {
			if infra.IsKind(txErr, infra.KindNotFound) {
				return ErrBookingNotFoundWrite
			}
			return errs.Mark(txErr, ErrDatabaseOperationFailed)
		}
		if !act.CanActOn(entity.CustomerID()) {
			return ErrBookingNotOwned
		}
		if txErr = entity.Cancel(reason, uc.clock.Now()); txErr != nil {
			return txErr
		}
		return tx.Bookings().Update(ctx, entity)
	})
	if err != nil {
		return err
	}

	uc.audit.Emit(shared.AuditEvent{
		Action:     shared.AuditBookingCancel,
		ActorID:    act.ID,
		BookingID:  bookingID,
		Details:    map[string]any{"reason": reason},
		OccurredAt: uc.clock.Now(),
	})
	return nil
}

func (uc *bookingUseCaseImpl) SetStatus(ctx context.Context, bookingID uuid.UUID, status string, reason string, act actor.Actor) error {
	if !act.Role.IsAdmin() {
		return ErrBookingNotOwned
	}

	next := booking.Status(status)
	if !next.IsValid() {
		return booking.ErrInvalidStatus
	}

	var previous booking.Status
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, txErr := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if txErr != nil {
			if infra.IsKind(txErr, infra.KindNotFound) {
				return ErrBookingNotFoundWrite
			}
			return errs.Mark(txErr, ErrDatabaseOperationFailed)
		}
		previous = entity.Status()
		if txErr = entity.ApplyStatus(next, reason, uc.clock.Now()); txErr != nil {
			return txErr
		}
		return tx.Bookings().Update(ctx, entity)
	})
	if err != nil {
		return err
	}

	uc.audit.Emit(shared.AuditEvent{
		Action:    shared.AuditBookingUpdate,
		ActorID:   act.ID,
		BookingID: bookingID,
		Details: map[string]any{
			"from": previous.String(),
			"to":   next.String(),
		},
		OccurredAt: uc.clock.Now(),
	})
	return nil
}

func (uc *bookingUseCaseImpl) resolveVehicle(ctx context.Context, reads shared.CommandReads, id uuid.UUID) (booking.VehicleSpec, error) {
	snap, err := reads.VehicleByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return booking.VehicleSpec{}, ErrVehicleNotFound
		}
		return booking.VehicleSpec{}, errs.Mark(err, ErrVehicleNotFound)
	}
	return booking.VehicleSpec{
		ID:         snap.ID,
		DailyRate:  booking.NewMoney(snap.DailyRateCents),
		IsBookable: snap.IsBookable,
	}, nil
}

func (uc *bookingUseCaseImpl) resolveAddOns(ctx context.Context, reads shared.CommandReads, requests []AddOnRequest) ([]booking.AddOnSpec, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(requests))
	quantities := make(map[uuid.UUID]int, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
		quantities[r.ID] = r.Quantity
	}

	resolved, missing, err := reads.AddOnsByIDs(ctx, ids)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if len(missing) > 0 {
		return nil, booking.ErrUnknownAddOn
	}

	specs := make([]booking.AddOnSpec, 0, len(resolved))
	for _, snap := range resolved {
		specs = append(specs, booking.AddOnSpec{
			ID:         snap.ID,
			Name:       snap.Name,
			DailyRate:  booking.NewMoney(snap.DailyRateCents),
			IsBookable: snap.IsBookable,
			Quantity:   quantities[snap.ID],
		})
	}
	return specs, nil
}

func (uc *bookingUseCaseImpl) calculateRequestHash(req CreateBookingRequest) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
