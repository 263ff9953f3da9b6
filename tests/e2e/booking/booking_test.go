//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/handler/dto/request"
	"fleetbook/internal/handler/dto/response"
	"fleetbook/tests/common/authtest"
	"fleetbook/tests/common/builder"
	"fleetbook/tests/common/dbtest"
	"fleetbook/tests/common/httptest"
	"fleetbook/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL      = "/api/bookings"
	quoteURL         = "/api/bookings/quote"
	availabilityURL  = "/api/vehicles/%s/availability?start_date=%s&end_date=%s"
	adminBookingsURL = "/api/admin/bookings"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) customerToken(t *testing.T, customerID uuid.UUID) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, customerID, actor.RoleCustomer)
}

func (s *BookingSuite) adminToken(t *testing.T) string {
	t.Helper()
	return authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, uuid.New(), actor.RoleAdmin)
}

func idemHeaders() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

func sedanRequest() *builder.BookingBuilder {
	return builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
		b.VehicleID = dbtest.VehicleSedanID
	})
}

// createBooking drives the real endpoint and returns the created booking.
func (s *BookingSuite) createBooking(t *testing.T, b *builder.BookingBuilder, token string) response.BookingResponse {
	t.Helper()

	w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
		b.BuildCreateRequestDTO(), token, idemHeaders())
	require.Equal(t, http.StatusCreated, w.Code, "booking creation failed: %s", w.Body.String())

	var created response.BookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
	return created
}

// =============================================================================
// TestCreateBooking - Booking creation API tests
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: customer can create a booking with priced totals", func() {
		t := s.T()

		customerID := uuid.New()
		token := s.customerToken(t, customerID)

		reqBody := sedanRequest().BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idemHeaders())
		require.Equal(t, http.StatusCreated, w.Code, "should create booking: %s", w.Body.String())

		var actual response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &actual))
		require.NotEqual(t, uuid.Nil, actual.ID)

		expected := response.BookingResponse{
			CustomerID:        customerID,
			VehicleID:         dbtest.VehicleSedanID,
			VehicleName:       "Compact Sedan",
			TotalDays:         2,
			PickupLocation:    "main depot",
			DropoffLocation:   "main depot",
			BaseAmountCents:   9000,
			AddOnsAmountCents: 0,
			TaxAmountCents:    900,
			TotalAmountCents:  9900,
			Status:            "pending",
			PaymentStatus:     "pending",
			LineItems:         []response.LineItemResponse{},
		}

		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.BookingResponse{},
				"ID", "StartDate", "EndDate", "CreatedAt", "UpdatedAt"),
		}
		if diff := cmp.Diff(expected, actual, opts...); diff != "" {
			t.Errorf("booking response mismatch (-want +got):\n%s", diff)
		}

		// Detail endpoint returns the same booking
		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+actual.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, dw.Code)
	})

	s.Run("Normal case: add-ons are priced per day and itemized", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		reqBody := sedanRequest().BuildCreateRequestDTO()
		reqBody.AddOns = append(reqBody.AddOns, request.AddOnSelection{ID: dbtest.AddOnGPSID, Quantity: 1})

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idemHeaders())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.Equal(t, int64(9000), created.BaseAmountCents)
		require.Equal(t, int64(2000), created.AddOnsAmountCents)
		require.Equal(t, int64(1100), created.TaxAmountCents)
		require.Equal(t, int64(12100), created.TotalAmountCents)
		require.Len(t, created.LineItems, 1)
		require.Equal(t, "GPS Navigation", created.LineItems[0].Name)
	})

	s.Run("Idempotency: replaying the same key returns the original booking", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		reqBody := sedanRequest().BuildCreateRequestDTO()
		headers := idemHeaders()

		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, headers)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))

		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, headers)
		require.Equal(t, http.StatusOK, w2.Code, "replay should return the stored result")
		var second response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &second))
		require.Equal(t, first.ID, second.ID)
	})

	s.Run("Conflict: overlapping dates on the same vehicle are rejected", func() {
		t := s.T()

		b := sedanRequest()
		s.createBooking(t, b, s.customerToken(t, uuid.New()))

		// A different customer asking for the same range loses
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
			b.BuildCreateRequestDTO(), s.customerToken(t, uuid.New()), idemHeaders())
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("Conflict: cancelled bookings no longer block the range", func() {
		t := s.T()

		b := sedanRequest()
		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, b, token)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/cancel", nil, token)
		require.Equal(t, http.StatusNoContent, cw.Code)

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
			b.BuildCreateRequestDTO(), s.customerToken(t, uuid.New()), idemHeaders())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	s.Run("Race: concurrent creates for the same range admit exactly one booking", func() {
		t := s.T()

		b := sedanRequest()
		const workers = 8

		tokens := make([]string, workers)
		for i := range workers {
			tokens[i] = s.customerToken(t, uuid.New())
		}

		codes := make([]int, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
					b.BuildCreateRequestDTO(), tokens[i], idemHeaders())
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		var created, conflicted int
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			}
		}
		require.Equal(t, 1, created, "exactly one request may win the range")
		require.Equal(t, workers-1, conflicted, "all losers must see a conflict: %v", codes)
	})

	s.Run("Error case: vehicle marked not bookable is rejected", func() {
		t := s.T()

		reqBody := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.VehicleID = dbtest.VehicleRetiredID
		}).BuildCreateRequestDTO()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
			reqBody, s.customerToken(t, uuid.New()), idemHeaders())
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	s.Run("Error case: missing Idempotency-Key is rejected", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			sedanRequest().BuildCreateRequestDTO(), s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("Auth test: unauthorized when not logged in", func() {
		t := s.T()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL,
			sedanRequest().BuildCreateRequestDTO(), "", idemHeaders())
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestQuote - Price preview API tests
// =============================================================================

func (s *BookingSuite) TestQuote() {
	s.Run("Normal case: quote prices without persisting anything", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, quoteURL,
			sedanRequest().BuildQuoteRequestDTO(), token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var quote response.QuoteResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &quote))
		require.Equal(t, 2, quote.TotalDays)
		require.Equal(t, int64(9900), quote.TotalAmountCents)

		var count int
		err := s.DB.QueryRow(t.Context(), "SELECT count(*) FROM bookings").Scan(&count)
		require.NoError(t, err)
		require.Zero(t, count, "quote must not create bookings")
	})

	s.Run("Error case: inverted date range is rejected", func() {
		t := s.T()

		reqBody := sedanRequest().With(func(b *builder.BookingBuilder) {
			b.EndDate = b.StartDate.AddDate(0, 0, -1)
		}).BuildQuoteRequestDTO()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, quoteURL, reqBody, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestGetBooking - Booking detail API tests
// =============================================================================

func (s *BookingSuite) TestGetBooking() {
	s.Run("Authorization: owner sees the booking, strangers do not", func() {
		t := s.T()

		ownerToken := s.customerToken(t, uuid.New())
		created := s.createBooking(t, sedanRequest(), ownerToken)
		url := bookingsURL + "/" + created.ID.String()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, ownerToken)
		require.Equal(t, http.StatusOK, w.Code)

		sw := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusForbidden, sw.Code)

		aw := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.adminToken(t))
		require.Equal(t, http.StatusOK, aw.Code, "admins can read any booking")
	})

	s.Run("Error case: unknown booking id returns not found", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			bookingsURL+"/"+uuid.NewString(), nil, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// TestListBookings - Booking list and pagination tests
// =============================================================================

func (s *BookingSuite) TestListBookings() {
	s.Run("Normal case: customer sees only their own bookings, paginated", func() {
		t := s.T()

		customerID := uuid.New()
		token := s.customerToken(t, customerID)

		for i := range 3 {
			b := sedanRequest().With(func(b *builder.BookingBuilder) {
				offset := 7 + i*10
				b.StartDate = time.Now().UTC().AddDate(0, 0, offset)
				b.EndDate = b.StartDate.AddDate(0, 0, 2)
			})
			s.createBooking(t, b, token)
		}
		// Another customer's booking must not leak into the list
		other := sedanRequest().With(func(b *builder.BookingBuilder) {
			b.VehicleID = dbtest.VehicleVanID
		})
		s.createBooking(t, other, s.customerToken(t, uuid.New()))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?limit=2", nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page response.BookingPageResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &page))
		require.Len(t, page.Items, 2)
		require.NotNil(t, page.NextCursor, "a third booking remains")
		for _, item := range page.Items {
			require.Equal(t, customerID, item.CustomerID)
		}

		w2 := httptest.PerformRequest(t, s.Router, http.MethodGet,
			bookingsURL+"?limit=2&cursor="+*page.NextCursor, nil, token)
		require.Equal(t, http.StatusOK, w2.Code)

		var page2 response.BookingPageResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &page2))
		require.Len(t, page2.Items, 1)
		require.Nil(t, page2.NextCursor)
	})

	s.Run("Admin: list all bookings with a status filter", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, sedanRequest(), token)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/cancel", nil, token)
		require.Equal(t, http.StatusNoContent, cw.Code)

		s.createBooking(t, sedanRequest().With(func(b *builder.BookingBuilder) {
			b.VehicleID = dbtest.VehicleVanID
		}), s.customerToken(t, uuid.New()))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet,
			adminBookingsURL+"?status=cancelled", nil, s.adminToken(t))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page response.BookingPageResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &page))
		require.Len(t, page.Items, 1)
		require.Equal(t, created.ID, page.Items[0].ID)
	})

	s.Run("Auth test: customers cannot use the admin list", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, adminBookingsURL, nil, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// TestCancelBooking - Cancellation API tests
// =============================================================================

func (s *BookingSuite) TestCancelBooking() {
	s.Run("Normal case: owner cancels with a reason", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, sedanRequest(), token)
		url := bookingsURL + "/" + created.ID.String() + "/cancel"

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]string{"reason": "change of plans"}, token)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, dw.Code)
		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "cancelled", detail.Status)
		require.NotNil(t, detail.CancelReason)
		require.Equal(t, "change of plans", *detail.CancelReason)
		require.NotNil(t, detail.CancelledAt)
	})

	s.Run("Error case: cancelling twice fails", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, sedanRequest(), token)
		url := bookingsURL + "/" + created.ID.String() + "/cancel"

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, token)
		require.Equal(t, http.StatusNoContent, w1.Code)

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, token)
		require.Equal(t, http.StatusUnprocessableEntity, w2.Code)
	})

	s.Run("Authorization: strangers cannot cancel", func() {
		t := s.T()

		created := s.createBooking(t, sedanRequest(), s.customerToken(t, uuid.New()))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost,
			bookingsURL+"/"+created.ID.String()+"/cancel", nil, s.customerToken(t, uuid.New()))
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// TestAvailability - Vehicle availability API tests
// =============================================================================

func (s *BookingSuite) TestAvailability() {
	s.Run("Normal case: free range reports available, booked range reports the conflict", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		b := sedanRequest()
		created := s.createBooking(t, b, token)

		url := fmt.Sprintf(availabilityURL, dbtest.VehicleSedanID,
			b.StartDate.Format(time.RFC3339), b.EndDate.Format(time.RFC3339))
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &resp))
		require.False(t, resp.Available)
		require.NotNil(t, resp.Conflict)
		require.Equal(t, created.ID, *resp.Conflict)

		freeURL := fmt.Sprintf(availabilityURL, dbtest.VehicleVanID,
			b.StartDate.Format(time.RFC3339), b.EndDate.Format(time.RFC3339))
		fw := httptest.PerformRequest(t, s.Router, http.MethodGet, freeURL, nil, token)
		require.Equal(t, http.StatusOK, fw.Code)

		var free response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, fw.Body, &free))
		require.True(t, free.Available)
		require.Nil(t, free.Conflict)
	})
}

// =============================================================================
// TestSetBookingStatus - Admin lifecycle transition tests
// =============================================================================

func (s *BookingSuite) TestSetBookingStatus() {
	s.Run("Normal case: admin walks a confirmed booking through the lifecycle", func() {
		t := s.T()

		token := s.customerToken(t, uuid.New())
		created := s.createBooking(t, sedanRequest(), token)
		statusURL := adminBookingsURL + "/" + created.ID.String() + "/status"
		adminToken := s.adminToken(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL,
			map[string]string{"status": "confirmed"}, adminToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		for _, status := range []string{"active", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL,
				map[string]string{"status": status}, adminToken)
			require.Equal(t, http.StatusNoContent, w.Code, "transition to %s failed: %s", status, w.Body.String())
		}

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, dw.Code)
		var detail response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "completed", detail.Status)
	})

	s.Run("Error case: skipping states is rejected", func() {
		t := s.T()

		created := s.createBooking(t, sedanRequest(), s.customerToken(t, uuid.New()))

		w := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			adminBookingsURL+"/"+created.ID.String()+"/status",
			map[string]string{"status": "completed"}, s.adminToken(t))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})
}
