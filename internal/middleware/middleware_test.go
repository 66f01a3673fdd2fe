package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket(t *testing.T) {
	t.Parallel()

	now := time.Unix(100, 0)
	tb := NewTokenBucket(2)
	tb.now = func() time.Time { return now }
	tb.lastSec = now.Unix()

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(time.Second)
	assert.True(t, tb.Allow())
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RateLimit(ok, false, 1)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	a := ParseAllowlist("127.0.0.1, 10.0.0.0/8, bogus, ::1")
	assert.True(t, a.Allowed(net.ParseIP("127.0.0.1")))
	assert.True(t, a.Allowed(net.ParseIP("10.1.2.3")))
	assert.True(t, a.Allowed(net.ParseIP("::1")))
	assert.False(t, a.Allowed(net.ParseIP("8.8.8.8")))
	assert.False(t, a.Allowed(nil))

	assert.True(t, ParseAllowlist("").Allowed(net.ParseIP("8.8.8.8")))
}

func TestAllowlistWrap(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := ParseAllowlist("10.0.0.0/8").Wrap(ok)

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.RemoteAddr = "192.168.1.1:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
