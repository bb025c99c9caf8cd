package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/reqid"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecoveryReturns500(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("slot jammed")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggerInjectsRequestLogger(t *testing.T) {
	var injected bool
	h := reqid.Middleware()(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		injected = logger.WithCtx(r.Context()) != logger.L
		w.WriteHeader(http.StatusAccepted)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, injected)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := rl.Middleware(ok)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(DefaultCORSOptions("https://kiosk.example.com"))(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/products/purchase", nil)
	req.Header.Set("Origin", "https://kiosk.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://kiosk.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
