//go:build unit

package api_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/domain/booking"
	"fleetbook/internal/handler/api"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/shared"
	"fleetbook/tests/common/httptest"
	commandsmock "fleetbook/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const testWebhookSecret = "webhook-test-secret"

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
	handler      *api.PaymentHandler
	customerID   uuid.UUID
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.handler = api.NewPaymentHandler(s.mockCommands, testWebhookSecret)
	s.customerID = uuid.New()

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		c.Set("customer_id", s.customerID)
		c.Set("customer_role", actor.RoleCustomer)
		c.Next()
	}

	s.router.POST("/bookings/:id/payment", authMiddleware, s.handler.InitiatePayment)
	s.router.POST("/bookings/:id/payment/confirm", authMiddleware, s.handler.ConfirmPayment)
	s.router.POST("/payments/webhook", s.handler.HandleWebhook)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (s *PaymentHandlerTestSuite) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentHandlerTestSuite) webhookBody(ref, status string) []byte {
	body, err := json.Marshal(map[string]string{"payment_ref": ref, "status": status})
	s.Require().NoError(err)
	return body
}

// ================================================================================
// TestInitiatePayment
// ================================================================================

func (s *PaymentHandlerTestSuite) TestInitiatePayment() {
	id := uuid.New()
	url := "/bookings/" + id.String() + "/payment"

	s.Run("success: returns 200 with payment reference", func() {
		s.mockCommands.EXPECT().Initiate(gomock.Any(), id, gomock.Any()).
			Return(&commands.InitiatePaymentResult{PaymentRef: "pi_123", AmountCents: 9900, Currency: "USD"}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")

		var resp resdto.InitiatePaymentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("pi_123", resp.PaymentRef)
		s.Equal(int64(9900), resp.AmountCents)
		s.Equal("USD", resp.Currency)
	})

	errorCases := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "unknown booking returns 404", err: commands.ErrBookingNotFoundWrite, expectCode: http.StatusNotFound},
		{name: "foreign booking returns 403", err: commands.ErrBookingNotOwned, expectCode: http.StatusForbidden},
		{name: "already paid returns 409", err: booking.ErrAlreadyPaid, expectCode: http.StatusConflict},
		{name: "cancelled booking returns 422", err: commands.ErrBookingNotPayable, expectCode: http.StatusUnprocessableEntity},
		{name: "processor outage returns 503", err: shared.ErrProcessorUnavailable, expectCode: http.StatusServiceUnavailable},
	}
	for _, tc := range errorCases {
		s.Run(tc.name, func() {
			s.mockCommands.EXPECT().Initiate(gomock.Any(), id, gomock.Any()).
				Return(nil, tc.err).Times(1)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
		})
	}

	s.Run("missing token returns 401", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// ================================================================================
// TestConfirmPayment
// ================================================================================

func (s *PaymentHandlerTestSuite) TestConfirmPayment() {
	id := uuid.New()
	url := "/bookings/" + id.String() + "/payment/confirm"

	s.Run("success: returns the settled statuses", func() {
		s.mockCommands.EXPECT().Confirm(gomock.Any(), id, gomock.Any()).
			Return(&commands.ConfirmPaymentResult{
				PaymentStatus: booking.PaymentPaid,
				BookingStatus: booking.StatusConfirmed,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")

		var resp resdto.ConfirmPaymentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("paid", resp.PaymentStatus)
		s.Equal("confirmed", resp.BookingStatus)
	})

	s.Run("confirm before initiate returns 422", func() {
		s.mockCommands.EXPECT().Confirm(gomock.Any(), id, gomock.Any()).
			Return(nil, commands.ErrPaymentNotInitiated).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "")
	})
}

// ================================================================================
// TestHandleWebhook
// ================================================================================

func (s *PaymentHandlerTestSuite) TestHandleWebhook() {
	url := "/payments/webhook"

	s.Run("success: valid signature applies the notification", func() {
		body := s.webhookBody("pi_123", "succeeded")

		s.mockCommands.EXPECT().HandleNotification(gomock.Any(), commands.PaymentNotification{
			PaymentRef: "pi_123",
			Status:     shared.IntentSucceeded,
		}).Return(nil).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing signature returns 401", func() {
		body := s.webhookBody("pi_123", "succeeded")
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "signature")
	})

	s.Run("wrong signature returns 401", func() {
		body := s.webhookBody("pi_123", "succeeded")
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body,
			map[string]string{"X-Payment-Signature": s.sign([]byte("other payload"))})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "signature")
	})

	s.Run("tampered body fails verification", func() {
		body := s.webhookBody("pi_123", "succeeded")
		signature := s.sign(body)
		tampered := s.webhookBody("pi_123", "failed")

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, tampered,
			map[string]string{"X-Payment-Signature": signature})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "signature")
	})

	s.Run("unknown status value returns 400", func() {
		body := s.webhookBody("pi_123", "charged_back")
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("missing payment_ref returns 400", func() {
		body := s.webhookBody("", "succeeded")
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("unknown payment reference returns 404", func() {
		body := s.webhookBody("pi_missing", "succeeded")

		s.mockCommands.EXPECT().HandleNotification(gomock.Any(), gomock.Any()).
			Return(commands.ErrBookingNotFoundWrite).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, body,
			map[string]string{"X-Payment-Signature": s.sign(body)})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})
}
