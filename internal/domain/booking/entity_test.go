//go:build unit

package booking_test

import (
	"testing"
	"time"

	"fleetbook/internal/domain/booking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T) *booking.Booking {
	t.Helper()
	rng := mustRange(t, day(10, 0), day(12, 0))
	quote := booking.Quote{
		TotalDays:   2,
		BaseAmount:  booking.NewMoney(9000),
		TaxAmount:   booking.NewMoney(900),
		TotalAmount: booking.NewMoney(9900),
	}
	b, err := booking.NewBooking(
		uuid.New(), uuid.New(), rng, quote,
		booking.NewLocation("Airport"), booking.NewLocation(""), booking.NewNote(""),
	)
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	t.Run("starts pending with open payment", func(t *testing.T) {
		b := newTestBooking(t)
		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Equal(t, booking.PaymentPending, b.PaymentStatus())
		assert.Nil(t, b.PaymentRef())
		assert.Nil(t, b.Cancellation())
		assert.NotEqual(t, uuid.Nil, b.ID())
	})

	t.Run("rejects negative total", func(t *testing.T) {
		rng := mustRange(t, day(10, 0), day(12, 0))
		_, err := booking.NewBooking(
			uuid.New(), uuid.New(), rng,
			booking.Quote{TotalAmount: booking.NewMoney(-1)},
			booking.NewLocation(""), booking.NewLocation(""), booking.NewNote(""),
		)
		assert.ErrorIs(t, err, booking.ErrNegativePrice)
	})
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    booking.Status
		to      booking.Status
		allowed bool
	}{
		{booking.StatusPending, booking.StatusConfirmed, true},
		{booking.StatusPending, booking.StatusCancelled, true},
		{booking.StatusPending, booking.StatusActive, false},
		{booking.StatusPending, booking.StatusCompleted, false},
		{booking.StatusConfirmed, booking.StatusActive, true},
		{booking.StatusConfirmed, booking.StatusCancelled, true},
		{booking.StatusConfirmed, booking.StatusCompleted, false},
		{booking.StatusConfirmed, booking.StatusPending, false},
		{booking.StatusActive, booking.StatusCompleted, true},
		{booking.StatusActive, booking.StatusCancelled, true},
		{booking.StatusActive, booking.StatusPending, false},
		{booking.StatusCompleted, booking.StatusCancelled, false},
		{booking.StatusCompleted, booking.StatusActive, false},
		{booking.StatusCancelled, booking.StatusPending, false},
		{booking.StatusCancelled, booking.StatusConfirmed, false},
	}

	for _, c := range cases {
		name := c.from.String() + " to " + c.to.String()
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to))
		})
	}
}

func TestApplyStatus(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("legal transition updates status", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.ApplyStatus(booking.StatusConfirmed, "", now))
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Equal(t, now, b.UpdatedAt())
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		b := newTestBooking(t)
		err := b.ApplyStatus(booking.StatusCompleted, "", now)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition)
		assert.Equal(t, booking.StatusPending, b.Status())
	})

	t.Run("unknown status value is rejected", func(t *testing.T) {
		b := newTestBooking(t)
		err := b.ApplyStatus(booking.Status("shipped"), "", now)
		assert.ErrorIs(t, err, booking.ErrInvalidStatus)
	})

	t.Run("transition to cancelled stamps cancellation", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.ApplyStatus(booking.StatusCancelled, "customer request", now))
		require.NotNil(t, b.Cancellation())
		assert.Equal(t, "customer request", b.Cancellation().Reason)
		assert.Equal(t, now, b.Cancellation().CancelledAt)
	})
}

func TestCancel(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("cancel from each cancellable status", func(t *testing.T) {
		for _, status := range []booking.Status{booking.StatusConfirmed, booking.StatusActive} {
			b := newTestBooking(t)
			require.NoError(t, b.ApplyStatus(booking.StatusConfirmed, "", now))
			if status == booking.StatusActive {
				require.NoError(t, b.ApplyStatus(booking.StatusActive, "", now))
			}
			assert.NoError(t, b.Cancel("changed plans", now))
			assert.Equal(t, booking.StatusCancelled, b.Status())
		}
	})

	t.Run("cancel twice is rejected", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Cancel("first", now))
		assert.ErrorIs(t, b.Cancel("second", now), booking.ErrInvalidTransition)
	})
}

func TestPaymentLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("mark paid confirms a pending booking", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))

		assert.Equal(t, booking.PaymentPaid, b.PaymentStatus())
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		require.NotNil(t, b.PaymentRef())
		assert.Equal(t, "pi_123", *b.PaymentRef())
	})

	t.Run("mark paid with same ref is a no-op", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		require.NoError(t, b.MarkPaid("pi_123", now.Add(time.Minute)))
		assert.Equal(t, booking.PaymentPaid, b.PaymentStatus())
	})

	t.Run("mark paid with different ref is rejected", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		assert.ErrorIs(t, b.MarkPaid("pi_456", now), booking.ErrAlreadyPaid)
	})

	t.Run("failure never regresses paid", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		b.MarkPaymentFailed(now.Add(time.Minute))
		assert.Equal(t, booking.PaymentPaid, b.PaymentStatus())
	})

	t.Run("failure marks an open payment failed", func(t *testing.T) {
		b := newTestBooking(t)
		b.MarkPaymentFailed(now)
		assert.Equal(t, booking.PaymentFailed, b.PaymentStatus())
		assert.Equal(t, booking.StatusPending, b.Status())
	})

	t.Run("attach ref keeps payment open", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.AttachPaymentRef("pi_123", now))
		assert.Equal(t, booking.PaymentPending, b.PaymentStatus())
		require.NotNil(t, b.PaymentRef())
		assert.Equal(t, "pi_123", *b.PaymentRef())
	})

	t.Run("attach ref reopens a failed payment", func(t *testing.T) {
		b := newTestBooking(t)
		b.MarkPaymentFailed(now)
		require.NoError(t, b.AttachPaymentRef("pi_456", now.Add(time.Minute)))
		assert.Equal(t, booking.PaymentPending, b.PaymentStatus())
		require.NotNil(t, b.PaymentRef())
		assert.Equal(t, "pi_456", *b.PaymentRef())
	})

	t.Run("attach ref after paid is rejected", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		assert.ErrorIs(t, b.AttachPaymentRef("pi_456", now), booking.ErrAlreadyPaid)
	})
}

func TestMarkRefunded(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("refund requires paid", func(t *testing.T) {
		b := newTestBooking(t)
		assert.ErrorIs(t, b.MarkRefunded("", now), booking.ErrNotPaid)
	})

	t.Run("refund cancels a confirmed booking", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		require.NoError(t, b.MarkRefunded("damaged vehicle", now))

		assert.Equal(t, booking.PaymentRefunded, b.PaymentStatus())
		assert.Equal(t, booking.StatusCancelled, b.Status())
		require.NotNil(t, b.Cancellation())
		assert.Equal(t, "damaged vehicle", b.Cancellation().Reason)
	})

	t.Run("refund keeps a completed booking completed", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.MarkPaid("pi_123", now))
		require.NoError(t, b.ApplyStatus(booking.StatusActive, "", now))
		require.NoError(t, b.ApplyStatus(booking.StatusCompleted, "", now))

		require.NoError(t, b.MarkRefunded("goodwill", now))
		assert.Equal(t, booking.PaymentRefunded, b.PaymentStatus())
		assert.Equal(t, booking.StatusCompleted, b.Status())
		assert.Nil(t, b.Cancellation())
	})
}
