package booking

import (
	"net/http"
	"strconv"

	"github.com/adamswbrown/gymproject-sub000/internal/api"
	"github.com/adamswbrown/gymproject-sub000/internal/auth"
	"github.com/adamswbrown/gymproject-sub000/internal/logger"
	"github.com/adamswbrown/gymproject-sub000/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Reserve godoc
// @Summary      Reserve a seat
// @Description  Books a seat in the given session, re-activating a previously cancelled booking when one exists.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path  int  true  "Session ID"
// @Success      201  {object}  api.Envelope
// @Failure      400  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Failure      500  {object}  api.Envelope
// @Router       /sessions/{sessionID}/reserve [post]
func (h *Handler) Reserve(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.Fail("unauthorized", "User not authenticated", nil))
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("bad_request", "Invalid session ID", nil))
		return
	}

	booking, err := h.service.Reserve(c.Request.Context(), userID, sessionID)
	if err != nil {
		if bookingErr, ok := AsError(err); ok {
			metrics.RecordReservation(string(bookingErr.Code))
			c.JSON(statusFor(bookingErr.Code), api.Fail(string(bookingErr.Code), bookingErr.Message, bookingErr.Details))
			return
		}
		metrics.RecordReservation("internal_error")
		logger.Error("reserve failed", "user_id", userID, "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal_error", "Failed to create booking", nil))
		return
	}

	metrics.RecordReservation("confirmed")
	c.JSON(http.StatusCreated, api.OK(booking))
}

// Cancel godoc
// @Summary      Cancel a booking
// @Description  Cancels the caller's booking. Cancelling twice is a successful no-op.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path  int  true  "Booking ID"
// @Success      200  {object}  api.Envelope
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.Fail("unauthorized", "User not authenticated", nil))
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("bad_request", "Invalid booking ID", nil))
		return
	}

	booking, err := h.service.Cancel(c.Request.Context(), userID, bookingID)
	if err != nil {
		if bookingErr, ok := AsError(err); ok {
			metrics.RecordCancellation(string(bookingErr.Code))
			c.JSON(statusFor(bookingErr.Code), api.Fail(string(bookingErr.Code), bookingErr.Message, bookingErr.Details))
			return
		}
		metrics.RecordCancellation("internal_error")
		logger.Error("cancel failed", "user_id", userID, "booking_id", bookingID, "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal_error", "Failed to cancel booking", nil))
		return
	}

	metrics.RecordCancellation("cancelled")
	c.JSON(http.StatusOK, api.OK(booking))
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Description  Returns bookings of the authenticated user with session details.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.Envelope
// @Failure      500  {object}  api.Envelope
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.Fail("unauthorized", "User not authenticated", nil))
		return
	}

	bookings, err := h.service.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to fetch bookings", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal_error", "Failed to fetch bookings", nil))
		return
	}

	c.JSON(http.StatusOK, api.OK(bookings))
}

func statusFor(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
