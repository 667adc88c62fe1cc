package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) Reserve(ctx context.Context, userID, sessionID int) (*BookingWithDetails, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingWithDetails), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, userID, bookingID int) (*BookingWithDetails, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingWithDetails), args.Error(1)
}

func (m *MockService) ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func setupRouter(svc Service, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
	})
	r.POST("/sessions/:sessionID/reserve", h.Reserve)
	r.POST("/bookings/:bookingID/cancel", h.Cancel)
	r.GET("/bookings", h.ListMyBookings)
	return r
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_Reserve(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	confirmed := &BookingWithDetails{
		Booking:         Booking{ID: 42, SessionID: 1, UserID: 7, Status: StatusConfirmed, BookedAt: now},
		SessionStartsAt: now.Add(2 * time.Hour),
		ClassTypeName:   "Spin",
	}

	tests := []struct {
		name       string
		path       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"created", "/sessions/1/reserve", nil, http.StatusCreated, ""},
		{"capacity full", "/sessions/1/reserve", errCapacityFull(10), http.StatusBadRequest, "capacity_full"},
		{"duplicate", "/sessions/1/reserve", errDuplicateBooking(), http.StatusBadRequest, "duplicate_booking"},
		{"registration closed", "/sessions/1/reserve", errRegistrationClosed("registration closed"), http.StatusBadRequest, "registration_closed"},
		{"session missing", "/sessions/1/reserve", errNotFound("session not found"), http.StatusNotFound, "not_found"},
		{"unexpected error", "/sessions/1/reserve", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
		{"bad session id", "/sessions/abc/reserve", nil, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.path == "/sessions/1/reserve" {
				if tt.serviceErr != nil {
					svc.On("Reserve", mock.Anything, 7, 1).Return(nil, tt.serviceErr)
				} else {
					svc.On("Reserve", mock.Anything, 7, 1).Return(confirmed, nil)
				}
			}

			r := setupRouter(svc, 7)
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			if tt.wantCode == "" {
				assert.True(t, env.OK)
			} else {
				assert.False(t, env.OK)
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
			}
		})
	}
}

func TestHandler_Reserve_CapacityFullDetails(t *testing.T) {
	svc := new(MockService)
	svc.On("Reserve", mock.Anything, 7, 1).Return(nil, errCapacityFull(20))

	r := setupRouter(svc, 7)
	req := httptest.NewRequest(http.MethodPost, "/sessions/1/reserve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, float64(0), env.Error.Details["available"])
	assert.Equal(t, float64(20), env.Error.Details["capacity"])
}

func TestHandler_Reserve_Unauthenticated(t *testing.T) {
	r := setupRouter(new(MockService), 0)
	req := httptest.NewRequest(http.MethodPost, "/sessions/1/reserve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Cancel(t *testing.T) {
	now := time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC)
	cancelled := &BookingWithDetails{
		Booking: Booking{ID: 42, SessionID: 1, UserID: 7, Status: StatusCancelled, CancelledAt: &now},
	}
	cutoff := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"cancelled", nil, http.StatusOK, ""},
		{"not owner", errForbidden("you can only cancel your own bookings"), http.StatusForbidden, "forbidden"},
		{"missing", errNotFound("booking not found"), http.StatusNotFound, "not_found"},
		{"past cutoff", errCancellationCutoffPassed(cutoff, now), http.StatusBadRequest, "cancellation_cutoff_passed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.serviceErr != nil {
				svc.On("Cancel", mock.Anything, 7, 42).Return(nil, tt.serviceErr)
			} else {
				svc.On("Cancel", mock.Anything, 7, 42).Return(cancelled, nil)
			}

			r := setupRouter(svc, 7)
			req := httptest.NewRequest(http.MethodPost, "/bookings/42/cancel", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			if tt.wantCode == "" {
				assert.True(t, env.OK)
			} else {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
			}
		})
	}
}

func TestHandler_ListMyBookings(t *testing.T) {
	svc := new(MockService)
	svc.On("ListUserBookings", mock.Anything, 7).Return([]BookingWithDetails{
		{Booking: Booking{ID: 42, SessionID: 1, UserID: 7, Status: StatusConfirmed}},
	}, nil)

	r := setupRouter(svc, 7)
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.OK)

	var bookings []BookingWithDetails
	require.NoError(t, json.Unmarshal(env.Data, &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, 42, bookings[0].ID)
}
