package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adamswbrown/gymproject-sub000/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) GetSchedule(ctx context.Context, f Filter) ([]Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *MockService) UpdateSessionCapacity(ctx context.Context, actorID, sessionID, capacity int) (*Session, error) {
	args := m.Called(ctx, actorID, sessionID, capacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func setupRouter(svc Service, scheduleCache *cache.Cache, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, scheduleCache)
	r := gin.New()
	r.GET("/schedule", h.GetSchedule)
	r.PATCH("/admin/sessions/:sessionID/capacity", func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
	}, h.UpdateSessionCapacity)
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

func sampleEntries() []Entry {
	return []Entry{{
		ID:                1,
		StartsAt:          time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		EndsAt:            time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC),
		Location:          "Studio A",
		ClassType:         Ref{ID: 1, Name: "Spin"},
		Instructor:        Ref{ID: 2, Name: "Dana"},
		Capacity:          20,
		ConfirmedCount:    5,
		RemainingCapacity: 15,
		RegistrationOpen:  true,
	}}
}

func TestHandler_GetSchedule(t *testing.T) {
	svc := new(MockService)
	svc.On("GetSchedule", mock.Anything, Filter{}).Return(sampleEntries(), nil)

	r := setupRouter(svc, nil, 0)
	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.OK)

	var entries []Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 15, entries[0].RemainingCapacity)
}

func TestHandler_GetSchedule_ParsesFilter(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	classTypeID := 3

	svc := new(MockService)
	svc.On("GetSchedule", mock.Anything, mock.MatchedBy(func(f Filter) bool {
		return f.From != nil && f.From.Equal(from) &&
			f.ClassTypeID != nil && *f.ClassTypeID == classTypeID &&
			f.To == nil && f.InstructorID == nil
	})).Return([]Entry{}, nil)

	r := setupRouter(svc, nil, 0)
	req := httptest.NewRequest(http.MethodGet, "/schedule?from=2026-01-15T00:00:00Z&class_type_id=3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestHandler_GetSchedule_BadFilter(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"bad from", "/schedule?from=yesterday"},
		{"bad to", "/schedule?to=2026-99-99"},
		{"bad class type", "/schedule?class_type_id=spin"},
		{"bad instructor", "/schedule?instructor_id=dana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			r := setupRouter(svc, nil, 0)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_GetSchedule_CacheHit(t *testing.T) {
	cached, err := json.Marshal(sampleEntries())
	require.NoError(t, err)

	client, mockRedis := redismock.NewClientMock()
	mockRedis.ExpectGet("classbook:schedule").SetVal(string(cached))

	svc := new(MockService)
	r := setupRouter(svc, cache.New(client, "classbook", time.Minute), 0)
	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.OK)
	svc.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
	require.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestHandler_GetSchedule_CacheMissFillsCache(t *testing.T) {
	entries := sampleEntries()
	payload, err := json.Marshal(entries)
	require.NoError(t, err)

	client, mockRedis := redismock.NewClientMock()
	mockRedis.ExpectGet("classbook:schedule").RedisNil()
	mockRedis.ExpectSet("classbook:schedule", payload, time.Minute).SetVal("OK")

	svc := new(MockService)
	svc.On("GetSchedule", mock.Anything, Filter{}).Return(entries, nil)

	r := setupRouter(svc, cache.New(client, "classbook", time.Minute), 0)
	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
	require.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestHandler_UpdateSessionCapacity(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"updated", `{"capacity": 25}`, nil, http.StatusOK, ""},
		{"below confirmed", `{"capacity": 25}`, &CapacityBelowConfirmedError{Confirmed: 30, Requested: 25}, http.StatusBadRequest, "capacity_below_confirmed"},
		{"session missing", `{"capacity": 25}`, ErrSessionNotFound, http.StatusNotFound, "not_found"},
		{"zero capacity", `{"capacity": 0}`, nil, http.StatusBadRequest, "bad_request"},
		{"missing capacity", `{}`, nil, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.wantCode == "" || tt.serviceErr != nil {
				if tt.serviceErr != nil {
					svc.On("UpdateSessionCapacity", mock.Anything, 99, 1, 25).Return(nil, tt.serviceErr)
				} else {
					svc.On("UpdateSessionCapacity", mock.Anything, 99, 1, 25).Return(&Session{ID: 1, Capacity: 25}, nil)
				}
			}

			r := setupRouter(svc, nil, 99)
			req := httptest.NewRequest(http.MethodPatch, "/admin/sessions/1/capacity", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
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

func TestHandler_UpdateSessionCapacity_BelowConfirmedDetails(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateSessionCapacity", mock.Anything, 99, 1, 10).
		Return(nil, &CapacityBelowConfirmedError{Confirmed: 12, Requested: 10})

	r := setupRouter(svc, nil, 99)
	req := httptest.NewRequest(http.MethodPatch, "/admin/sessions/1/capacity", bytes.NewBufferString(`{"capacity": 10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, float64(12), env.Error.Details["confirmed"])
	assert.Equal(t, float64(10), env.Error.Details["requested"])
}
