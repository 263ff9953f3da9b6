package api

import (
	"errors"
	"net/http"
	"time"

	"fleetbook/internal/domain/booking"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availabilityQueries queries.AvailabilityQueries
}

func NewAvailabilityHandler(availabilityQueries queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityQueries: availabilityQueries}
}

// @Summary Check vehicle availability
// @Description Check whether a vehicle is free for an inclusive date range
// @Tags vehicles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vehicle ID"
// @Param start_date query string true "Range start (RFC3339)"
// @Param end_date query string true "Range end (RFC3339)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Router /vehicles/{id}/availability [get]
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid vehicle ID format", nil)
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start_date"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid start_date", nil)
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_date"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid end_date", nil)
		return
	}

	conflict, err := h.availabilityQueries.FindConflict(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidRange) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date range", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	resp := resdto.AvailabilityResponse{Available: conflict == nil}
	if conflict != nil {
		id := conflict.BookingID
		resp.Conflict = &id
	}
	c.JSON(http.StatusOK, resp)
}
