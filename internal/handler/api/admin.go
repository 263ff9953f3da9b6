package api

import (
	"net/http"

	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	bookingCommands commands.BookingCommands
	paymentCommands commands.PaymentCommands
	bookingQueries  queries.BookingQueries
	bookingHandler  *BookingHandler
	paymentHandler  *PaymentHandler
}

func NewAdminHandler(
	bookingCommands commands.BookingCommands,
	paymentCommands commands.PaymentCommands,
	bookingQueries queries.BookingQueries,
	bookingHandler *BookingHandler,
	paymentHandler *PaymentHandler,
) *AdminHandler {
	return &AdminHandler{
		bookingCommands: bookingCommands,
		paymentCommands: paymentCommands,
		bookingQueries:  bookingQueries,
		bookingHandler:  bookingHandler,
		paymentHandler:  paymentHandler,
	}
}

// @Summary List all bookings
// @Description Cursor-paginated listing across all customers, admin only
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by booking status"
// @Param vehicle_id query string false "Filter by vehicle"
// @Param customer_id query string false "Filter by customer"
// @Param cursor query string false "Pagination cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.BookingPageResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /admin/bookings [get]
func (h *AdminHandler) ListAllBookings(c *gin.Context) {
	filter := queries.ListFilter{Status: queryStringPtr(c, "status")}

	if raw := c.Query("vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid vehicle_id format", nil)
			return
		}
		filter.VehicleID = &id
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid customer_id format", nil)
			return
		}
		filter.CustomerID = &id
	}

	rows, next, err := h.bookingQueries.ListAll(c.Request.Context(), filter, queryCursor(c), queryLimit(c))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid listing parameters", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingPage(rows, next))
}

// @Summary Set booking status
// @Description Apply a lifecycle transition, admin only
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.SetStatusRequest true "Target status"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /admin/bookings/{id}/status [patch]
func (h *AdminHandler) SetBookingStatus(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	var req reqdto.SetStatusRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}

	if err := h.bookingCommands.SetStatus(c.Request.Context(), id, req.Status, req.Reason, act); err != nil {
		h.bookingHandler.respondBookingError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Refund booking
// @Description Refund a paid booking through the processor, admin only
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.RefundRequest false "Refund reason"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /admin/bookings/{id}/refund [post]
func (h *AdminHandler) RefundBooking(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	var req reqdto.RefundRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
			return
		}
	}

	if err := h.paymentCommands.Refund(c.Request.Context(), id, req.Reason, act); err != nil {
		h.paymentHandler.respondPaymentError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
