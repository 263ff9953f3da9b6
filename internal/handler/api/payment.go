package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fleetbook/internal/domain/booking"
	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const webhookSignatureHeader = "X-Payment-Signature"

type PaymentHandler struct {
	paymentCommands commands.PaymentCommands
	webhookSecret   string
}

func NewPaymentHandler(paymentCommands commands.PaymentCommands, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentCommands: paymentCommands,
		webhookSecret:   webhookSecret,
	}
}

// @Summary Initiate payment
// @Description Open a payment intent with the processor for a booking
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.InitiatePaymentResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings/{id}/payment [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID", nil)
		return
	}

	result, err := h.paymentCommands.Initiate(c.Request.Context(), id, act)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromInitiateResult(result))
}

// @Summary Confirm payment
// @Description Poll the processor for the intent outcome and apply it
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.ConfirmPaymentResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings/{id}/payment/confirm [post]
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID", nil)
		return
	}

	result, err := h.paymentCommands.Confirm(c.Request.Context(), id, act)
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromConfirmResult(result))
}

// @Summary Payment webhook
// @Description Processor callback with an intent outcome, HMAC-signed
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Payment-Signature header string true "HMAC-SHA256 of the raw body"
// @Param request body reqdto.PaymentNotificationRequest true "Notification payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /payments/webhook [post]
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unable to read request body", nil)
		return
	}

	if !h.verifySignature(body, c.GetHeader(webhookSignatureHeader)) {
		httperr.AbortWithError(c, http.StatusUnauthorized, errInvalidSignature, "Invalid webhook signature", nil)
		return
	}

	var req reqdto.PaymentNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil || req.PaymentRef == "" || req.Status == "" {
		if err == nil {
			err = errInvalidPayload
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid notification payload", nil)
		return
	}

	var status shared.IntentStatus
	switch req.Status {
	case "succeeded":
		status = shared.IntentSucceeded
	case "failed":
		status = shared.IntentFailed
	case "pending":
		status = shared.IntentPending
	default:
		httperr.AbortWithError(c, http.StatusBadRequest, errInvalidPayload, "Unknown payment status", nil)
		return
	}

	err = h.paymentCommands.HandleNotification(c.Request.Context(), commands.PaymentNotification{
		PaymentRef: req.PaymentRef,
		Status:     status,
	})
	if err != nil {
		if errors.Is(err, commands.ErrBookingNotFoundWrite) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Unknown payment reference", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var (
	errInvalidSignature = errors.New("invalid webhook signature")
	errInvalidPayload   = errors.New("invalid notification payload")
)

func (h *PaymentHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *PaymentHandler) respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrBookingNotFoundWrite):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, commands.ErrBookingNotOwned):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
	case errors.Is(err, commands.ErrBookingNotPayable):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Booking is not payable", nil)
	case errors.Is(err, commands.ErrPaymentNotInitiated):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Payment has not been initiated", nil)
	case errors.Is(err, booking.ErrAlreadyPaid):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking is already paid", nil)
	case errors.Is(err, booking.ErrNotPaid):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Booking is not paid", nil)
	case errors.Is(err, shared.ErrRefundDeclined):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Refund declined by processor", nil)
	case errors.Is(err, shared.ErrProcessorUnavailable):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Payment processor unavailable", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
