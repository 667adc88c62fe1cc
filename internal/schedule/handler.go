package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/adamswbrown/gymproject-sub000/internal/api"
	"github.com/adamswbrown/gymproject-sub000/internal/auth"
	"github.com/adamswbrown/gymproject-sub000/internal/cache"
	"github.com/adamswbrown/gymproject-sub000/internal/logger"
	"github.com/adamswbrown/gymproject-sub000/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	cache   *cache.Cache
}

// NewHandler wires the schedule endpoints. cache may be nil, in which case
// every request hits the aggregator directly.
func NewHandler(service Service, scheduleCache *cache.Cache) *Handler {
	return &Handler{service: service, cache: scheduleCache}
}

// GetSchedule godoc
// @Summary      Class schedule
// @Description  Returns scheduled sessions in the given window with availability snapshots.
// @Tags         schedule
// @Produce      json
// @Param        from           query  string  false  "Start of window (RFC3339)"
// @Param        to             query  string  false  "End of window (RFC3339)"
// @Param        class_type_id  query  int     false  "Filter by class type"
// @Param        instructor_id  query  int     false  "Filter by instructor"
// @Success      200  {object}  api.Envelope
// @Failure      400  {object}  api.Envelope
// @Failure      500  {object}  api.Envelope
// @Router       /schedule [get]
func (h *Handler) GetSchedule(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("bad_request", err.Error(), nil))
		return
	}

	metrics.RecordScheduleRequest()

	key := scheduleCacheKey(c)
	if h.cache != nil {
		var entries []Entry
		ok, err := h.cache.Get(c.Request.Context(), key, &entries)
		if err != nil {
			logger.Error("schedule cache read failed", "error", err)
		} else if ok {
			metrics.RecordScheduleCache("hit")
			c.JSON(http.StatusOK, api.OK(entries))
			return
		}
		metrics.RecordScheduleCache("miss")
	}

	entries, err := h.service.GetSchedule(c.Request.Context(), filter)
	if err != nil {
		logger.Error("failed to build schedule", "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal_error", "Failed to fetch schedule", nil))
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), key, entries); err != nil {
			logger.Error("schedule cache write failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, api.OK(entries))
}

// UpdateSessionCapacity godoc
// @Summary      Change session capacity
// @Description  Updates a session's capacity. Rejected when the new capacity is below the confirmed booking count. Admin only.
// @Tags         schedule
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID  path  int                    true  "Session ID"
// @Param        body       body  UpdateCapacityRequest  true  "New capacity"
// @Success      200  {object}  api.Envelope
// @Failure      400  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /admin/sessions/{sessionID}/capacity [patch]
func (h *Handler) UpdateSessionCapacity(c *gin.Context) {
	actorID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.Fail("unauthorized", "User not authenticated", nil))
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("bad_request", "Invalid session ID", nil))
		return
	}

	var req UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("bad_request", "capacity must be a positive integer", nil))
		return
	}

	session, err := h.service.UpdateSessionCapacity(c.Request.Context(), actorID, sessionID, req.Capacity)
	if err != nil {
		var belowConfirmed *CapacityBelowConfirmedError
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.Fail("not_found", "Session not found", nil))
		case errors.As(err, &belowConfirmed):
			c.JSON(http.StatusBadRequest, api.Fail("capacity_below_confirmed", belowConfirmed.Error(), map[string]interface{}{
				"confirmed": belowConfirmed.Confirmed,
				"requested": belowConfirmed.Requested,
			}))
		default:
			logger.Error("failed to update session capacity", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, api.Fail("internal_error", "Failed to update capacity", nil))
		}
		return
	}

	c.JSON(http.StatusOK, api.OK(session))
}

func parseFilter(c *gin.Context) (Filter, error) {
	var f Filter

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("invalid from format, use RFC3339")
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("invalid to format, use RFC3339")
		}
		f.To = &t
	}
	if raw := c.Query("class_type_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("invalid class_type_id")
		}
		f.ClassTypeID = &id
	}
	if raw := c.Query("instructor_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("invalid instructor_id")
		}
		f.InstructorID = &id
	}

	return f, nil
}

func scheduleCacheKey(c *gin.Context) string {
	if c.Request.URL.RawQuery == "" {
		return "schedule"
	}
	return "schedule?" + c.Request.URL.RawQuery
}
