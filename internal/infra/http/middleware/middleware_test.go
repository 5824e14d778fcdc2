package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xavierca1/lead-crm/internal/entity"
)

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) FindUserID(ctx context.Context, token string, now time.Time) (string, error) {
	args := m.Called(ctx, token, now)
	return args.String(0), args.Error(1)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	w.Write([]byte(id))
}

func TestAuth_BearerToken(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("FindUserID", mock.Anything, "tok123", mock.Anything).Return("user-a", nil)

	h := Auth(sessions, zap.NewNop())(http.HandlerFunc(echoUser))
	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-a", rec.Body.String())
}

func TestAuth_SessionCookie(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("FindUserID", mock.Anything, "tok123", mock.Anything).Return("user-b", nil)

	h := Auth(sessions, zap.NewNop())(http.HandlerFunc(echoUser))
	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok123.signature"})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "user-b", rec.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("FindUserID", mock.Anything, "expired", mock.Anything).Return("", entity.ErrSessionNotFound)
	sessions.On("FindUserID", mock.Anything, "broken", mock.Anything).Return("", errors.New("db down"))

	h := Auth(sessions, zap.NewNop())(http.HandlerFunc(echoUser))

	for _, header := range []string{"", "Basic abc", "Bearer expired", "Bearer broken"} {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"error":"UNAUTHORIZED","message":"unauthorized"}`, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, 2)
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("user-a"))
	assert.Equal(t, http.StatusOK, do("user-a"))
	assert.Equal(t, http.StatusTooManyRequests, do("user-a"))
	// budgets are per user
	assert.Equal(t, http.StatusOK, do("user-b"))
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leads/{id}", routePattern(r))
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:4242"
	assert.Equal(t, "198.51.100.2", clientIP(req))
}
