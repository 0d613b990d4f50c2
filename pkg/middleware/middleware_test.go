package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"
	"marina/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(body))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/berths", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging_ReusesCallerID(t *testing.T) {
	id := uuid.NewString()
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/berths", nil)
	req.Header.Set(RequestIDHeader, id)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, id, seen)

	req = httptest.NewRequest(http.MethodGet, "/api/berths", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/berths", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.CodeInternal, decodeError(t, rec).Code)
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler("{}"))

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		want        int
	}{
		{"api json", http.MethodPost, "/api/berths", "application/json; charset=utf-8", `{"number":1}`, http.StatusCreated},
		{"api text", http.MethodPost, "/api/berths", "text/plain", "hello", http.StatusUnsupportedMediaType},
		{"api missing", http.MethodPut, "/api/berths/1", "", `{"status":"x"}`, http.StatusUnsupportedMediaType},
		{"api bodyless logout", http.MethodPost, "/api/accounts/logout", "", "", http.StatusCreated},
		{"page form", http.MethodPost, "/login", "application/x-www-form-urlencoded", "email=a", http.StatusCreated},
		{"api read", http.MethodGet, "/api/berths", "", "", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	var decodeErr error
	h := MaxRequestSize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dst map[string]string
		decodeErr = httputil.DecodeJSON(r, &dst)
	}))

	big := `{"client_name":"` + strings.Repeat("a", 64) + `"}`
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/berths", strings.NewReader(big)))

	require.Error(t, decodeErr)
	assert.Equal(t, "Request body too large", apperrors.AsAppError(decodeErr).Message)
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute, logger.Discard())
	defer limiter.Stop()
	h := RateLimit(limiter)(okHandler("{}"))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/berths", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3333"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.2:1111"))
}

func TestIPRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, logger.Discard())
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.evictIdle(time.Now().Add(2 * time.Minute))

	_, present := limiter.limiters.Load("10.0.0.1")
	assert.False(t, present)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/berths", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.CodeTimeout, decodeError(t, rec).Code)
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	h := RequestTimeout(time.Second)(okHandler(`{"ok":true}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/berths", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func idempotencyFixture(store IdempotencyStore, status int) (http.Handler, *int) {
	calls := 0
	h := Idempotency(store, IdempotencyConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	return h, &calls
}

func sendWithKey(h http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	h, calls := idempotencyFixture(store, http.StatusCreated)

	first := sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	second := sendWithKey(h, http.MethodPost, "/api/berths", "k1")

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))

	sendWithKey(h, http.MethodPost, "/api/berths/3/reservations", "k1")
	assert.Equal(t, 2, *calls, "same key on another path is a new request")
}

func TestIdempotency_SkipsFailuresAndReads(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	h, calls := idempotencyFixture(store, http.StatusConflict)
	sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	assert.Equal(t, 2, *calls)

	h, calls = idempotencyFixture(store, http.StatusCreated)
	sendWithKey(h, http.MethodGet, "/api/berths", "k2")
	sendWithKey(h, http.MethodGet, "/api/berths", "k2")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_ScopedToCaller(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	calls := 0
	h := Idempotency(store, IdempotencyConfig{
		Caller: func(r *http.Request) string { return r.Header.Get("Authorization") },
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	}))

	send := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/berths", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyHeader, "shared")
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	send("Bearer alice")
	other := send("Bearer mallory")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Bearer mallory", other.Body.String())
	assert.Empty(t, other.Header().Get("Idempotent-Replay"))

	again := send("Bearer alice")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Bearer alice", again.Body.String())
}

func TestIdempotency_DefaultCallerIsClientIP(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	h, calls := idempotencyFixture(store, http.StatusCreated)

	send := func(addr string) {
		req := httptest.NewRequest(http.MethodPost, "/api/berths", strings.NewReader(`{}`))
		req.RemoteAddr = addr
		req.Header.Set(IdempotencyHeader, "k1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	send("10.0.0.1:5000")
	send("10.0.0.2:5000")
	assert.Equal(t, 2, *calls)
	send("10.0.0.1:6000")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_SkipsPathsAndCookies(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	h := Idempotency(store, IdempotencyConfig{SkipPaths: []string{"/api/accounts/login"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.URL.Path == "/login" {
				http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc"})
			}
			w.WriteHeader(http.StatusOK)
		}))

	sendWithKey(h, http.MethodPost, "/api/accounts/login", "k1")
	sendWithKey(h, http.MethodPost, "/api/accounts/login", "k1")
	assert.Equal(t, 2, calls)

	sendWithKey(h, http.MethodPost, "/login", "k2")
	replay := sendWithKey(h, http.MethodPost, "/login", "k2")
	assert.Equal(t, 4, calls)
	assert.Empty(t, replay.Header().Get("Idempotent-Replay"))
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisIdempotencyStore(client, time.Minute, logger.Discard())
	h, calls := idempotencyFixture(store, http.StatusCreated)

	sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	replay := sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	assert.Equal(t, 1, *calls)
	assert.JSONEq(t, `{"n":1}`, replay.Body.String())

	mr.FastForward(2 * time.Minute)
	sendWithKey(h, http.MethodPost, "/api/berths", "k1")
	assert.Equal(t, 2, *calls)
}

func TestRedisIdempotencyStore_UnavailableIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisIdempotencyStore(client, time.Minute, logger.Discard())

	mr.Close()
	_, found := store.Get("anything")
	assert.False(t, found)
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/berths":                                          "/api/berths",
		"/api/berths/12":                                       "/api/berths/:number",
		"/api/berths/12/reservations/65f0c0ffee0123456789abcd": "/api/berths/:number/reservations/:id",
		"/api/accounts/john@example.com":                       "/api/accounts/:email",
		"/":                                                    "/",
	}
	for path, want := range tests {
		assert.Equal(t, want, RouteLabel(path), path)
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	h := m.Middleware(okHandler("{}"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/berths/4", nil))

	var metric dto.Metric
	require.NoError(t, m.requests.WithLabelValues(http.MethodPost, "/api/berths/:number", "201").Write(&metric))
	assert.Equal(t, 1.0, metric.GetCounter().GetValue())
}
