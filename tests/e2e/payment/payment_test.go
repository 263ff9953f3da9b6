//go:build e2e

package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/handler/dto/response"
	"fleetbook/tests/common/authtest"
	"fleetbook/tests/common/builder"
	"fleetbook/tests/common/dbtest"
	"fleetbook/tests/common/httptest"
	"fleetbook/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL = "/api/bookings"
	webhookURL  = "/api/payments/webhook"
)

type PaymentSuite struct {
	e2e.SharedSuite
}

func (s *PaymentSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestPaymentSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(PaymentSuite))
}

func (s *PaymentSuite) customerToken(t *testing.T, customerID uuid.UUID) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, customerID, actor.RoleCustomer)
}

func (s *PaymentSuite) adminToken(t *testing.T) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, uuid.New(), actor.RoleAdmin)
}

func (s *PaymentSuite) createBooking(t *testing.T, token string) response.BookingResponse {
	t.Helper()

	reqBody := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
		b.VehicleID = dbtest.VehicleSedanID
	}).BuildCreateRequestDTO()

	w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token,
		map[string]string{"Idempotency-Key": uuid.NewString()})
	require.Equal(t, http.StatusCreated, w.Code, "booking creation failed: %s", w.Body.String())

	var created response.BookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
	return created
}

func (s *PaymentSuite) initiate(t *testing.T, bookingID uuid.UUID, token string) response.InitiatePaymentResponse {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost,
		bookingsURL+"/"+bookingID.String()+"/payment", nil, token)
	require.Equal(t, http.StatusOK, w.Code, "initiate failed: %s", w.Body.String())

	var initiated response.InitiatePaymentResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &initiated))
	return initiated
}

// pay runs the full happy path: initiate, settle at the processor, confirm.
func (s *PaymentSuite) pay(t *testing.T, bookingID uuid.UUID, token string) string {
	t.Helper()

	initiated := s.initiate(t, bookingID, token)
	s.Processor.SetStatus(initiated.PaymentRef, "succeeded")

	w := httptest.PerformRequest(t, s.Router, http.MethodPost,
		bookingsURL+"/"+bookingID.String()+"/payment/confirm", nil, token)
	require.Equal(t, http.StatusOK, w.Code, "confirm failed: %s", w.Body.String())
	return initiated.PaymentRef
}

func (s *PaymentSuite) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(s.Config.Payment.WebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(ref, status string) []byte {
	return fmt.Appendf(nil, `{"payment_ref":%q,"status":%q}`, ref, status)
}

func (s *PaymentSuite) bookingDetail(t *testing.T, bookingID uuid.UUID, token string) response.BookingResponse {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+bookingID.String(), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var detail response.BookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &detail))
	return detail
}

// =============================================================================
// TestInitiatePayment - Payment intent creation tests
// =============================================================================

func (s *PaymentSuite) TestInitiatePayment() {
	s.Run("Normal case: initiating opens an intent for the booking total", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		initiated := s.initiate(t, created.ID, token)
		require.NotEmpty(t, initiated.PaymentRef)
		require.Equal(t, created.TotalAmountCents, initiated.AmountCents)
		require.Equal(t, s.Config.Payment.Currency, initiated.Currency)

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "pending", detail.PaymentStatus)
	})

	s.Run("Idempotency: re-initiating while pending reuses the intent", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		first := s.initiate(t, created.ID, token)
		second := s.initiate(t, created.ID, token)
		require.Equal(t, first.PaymentRef, second.PaymentRef)
	})

	s.Run("Error case: processor outage surfaces as service unavailable", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		s.Processor.FailNextOpens(1)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment", nil, token)
		require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

		// No intent ref was attached, so the next attempt opens a fresh one
		initiated := s.initiate(t, created.ID, token)
		require.NotEmpty(t, initiated.PaymentRef)
	})

	s.Run("Error case: cancelled bookings cannot be paid", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/cancel", nil, token)
		require.Equal(t, http.StatusNoContent, cw.Code)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment", nil, token)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	s.Run("Authorization: strangers cannot pay for someone else's booking", func() {
		t := s.T()

		created := s.createBooking(t, s.customerToken(t, uuid.New()))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment", nil, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// TestConfirmPayment - Processor polling confirmation tests
// =============================================================================

func (s *PaymentSuite) TestConfirmPayment() {
	s.Run("Normal case: succeeded intent marks the booking paid and confirmed", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		initiated := s.initiate(t, created.ID, token)
		s.Processor.SetStatus(initiated.PaymentRef, "succeeded")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment/confirm", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var confirmed response.ConfirmPaymentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &confirmed))
		require.Equal(t, "paid", confirmed.PaymentStatus)
		require.Equal(t, "confirmed", confirmed.BookingStatus)

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "confirmed", detail.Status)
		require.Equal(t, "paid", detail.PaymentStatus)
	})

	s.Run("Normal case: failed intent records the failure and keeps the booking pending", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		initiated := s.initiate(t, created.ID, token)
		s.Processor.SetStatus(initiated.PaymentRef, "failed")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment/confirm", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var confirmed response.ConfirmPaymentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &confirmed))
		require.Equal(t, "failed", confirmed.PaymentStatus)
		require.Equal(t, "pending", confirmed.BookingStatus)
	})

	s.Run("Error case: confirming before initiating fails", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/payment/confirm", nil, token)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestWebhook - Processor notification tests
// =============================================================================

func (s *PaymentSuite) TestWebhook() {
	s.Run("Normal case: signed success notification settles the booking", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		initiated := s.initiate(t, created.ID, token)

		body := webhookBody(initiated.PaymentRef, "succeeded")
		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "confirmed", detail.Status)
		require.Equal(t, "paid", detail.PaymentStatus)
	})

	s.Run("Idempotency: redelivered notification changes nothing", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		initiated := s.initiate(t, created.ID, token)

		body := webhookBody(initiated.PaymentRef, "succeeded")
		for range 2 {
			w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body,
				map[string]string{"X-Payment-Signature": s.sign(body)})
			require.Equal(t, http.StatusOK, w.Code)
		}

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "paid", detail.PaymentStatus)
	})

	s.Run("Ordering: a late failure never regresses a paid booking", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		ref := s.pay(t, created.ID, token)

		body := webhookBody(ref, "failed")
		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		require.Equal(t, http.StatusOK, w.Code)

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "paid", detail.PaymentStatus)
		require.Equal(t, "confirmed", detail.Status)
	})

	s.Run("Auth test: missing or wrong signature is rejected", func() {
		t := s.T()

		body := webhookBody("pi_whatever", "succeeded")

		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		w2 := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body,
			map[string]string{"X-Payment-Signature": "deadbeef"})
		require.Equal(t, http.StatusUnauthorized, w2.Code)
	})

	s.Run("Error case: unknown payment reference returns not found", func() {
		t := s.T()

		body := webhookBody("pi_unknown", "succeeded")
		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestRefund - Admin refund tests
// =============================================================================

func (s *PaymentSuite) TestRefund() {
	s.Run("Normal case: refunding a paid booking cancels it", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		ref := s.pay(t, created.ID, token)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			"/api/admin/bookings/"+created.ID.String()+"/refund",
			map[string]string{"reason": "customer complaint"}, s.adminToken(t))
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		require.Equal(t, 1, s.Processor.RefundCalls(ref))

		detail := s.bookingDetail(t, created.ID, token)
		require.Equal(t, "cancelled", detail.Status)
		require.Equal(t, "refunded", detail.PaymentStatus)
	})

	s.Run("Retry: transient processor failures are retried until success", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		ref := s.pay(t, created.ID, token)

		s.Processor.FailNextRefunds(2)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			"/api/admin/bookings/"+created.ID.String()+"/refund", nil, s.adminToken(t))
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		require.Equal(t, 3, s.Processor.RefundCalls(ref))
	})

	s.Run("Error case: unpaid bookings cannot be refunded", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			"/api/admin/bookings/"+created.ID.String()+"/refund", nil, s.adminToken(t))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	s.Run("Auth test: customers cannot refund", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, token)
		ref := s.pay(t, created.ID, token)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			"/api/admin/bookings/"+created.ID.String()+"/refund", nil, token)
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Zero(t, s.Processor.RefundCalls(ref))
	})
}
