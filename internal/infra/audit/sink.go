package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEventSQL = `
INSERT INTO audit_events (id, action, actor_id, booking_id, details, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const flushTimeout = 5 * time.Second

// Sink persists audit events asynchronously through a buffered channel.
// Emit never blocks a request handler; when the buffer is full the event is
// dropped with a warning rather than applying backpressure.
type Sink struct {
	pool   *pgxpool.Pool
	events chan shared.AuditEvent
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewSink(pool *pgxpool.Pool, cfg config.AuditConfig) *Sink {
	s := &Sink{
		pool:   pool,
		events: make(chan shared.AuditEvent, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) Emit(event shared.AuditEvent) {
	select {
	case s.events <- event:
	default:
		slog.Warn("audit buffer full, dropping event",
			"action", string(event.Action),
			"booking_id", event.BookingID.String())
	}
}

// Close drains buffered events before returning.
func (s *Sink) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Sink) run() {
	defer s.wg.Done()
	for {
		select {
		case event := <-s.events:
			s.persist(event)
		case <-s.done:
			for {
				select {
				case event := <-s.events:
					s.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Sink) persist(event shared.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	details, err := json.Marshal(event.Details)
	if err != nil {
		details = []byte("{}")
	}

	var actorID *uuid.UUID
	if event.ActorID != uuid.Nil {
		actorID = &event.ActorID
	}

	_, err = s.pool.Exec(ctx, insertEventSQL,
		uuid.New(),
		string(event.Action),
		actorID,
		event.BookingID,
		details,
		event.OccurredAt,
	)
	if err != nil {
		slog.Error("failed to persist audit event",
			"action", string(event.Action),
			"booking_id", event.BookingID.String(),
			"error", err.Error())
	}
}
