package mw

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	testCases := []struct {
		name      string
		key       KeyFunc
		principal func(i int) string
		want      []int
	}{
		{
			name:      "client ip ignores rotating principal headers",
			key:       ByClientIP,
			principal: func(i int) string { return fmt.Sprintf("ghost-%d", i) },
			want:      []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
		{
			name:      "resolved principals are limited separately",
			key:       ByPrincipal,
			principal: func(i int) string { return fmt.Sprintf("p%d", i%2) },
			want:      []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:      "unresolved requests fall back to the client ip",
			key:       ByPrincipal,
			principal: func(int) string { return "" },
			want:      []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if p := c.GetHeader("X-Principal-ID"); p != "" {
					c.Set(PrincipalKey, p)
				}
			})
			r.Use(RateLimiter(rate.Limit(0.001), 2, tc.key))
			r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			for i, want := range tc.want {
				w := httptest.NewRecorder()
				req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
				req.RemoteAddr = "10.0.0.1:4000"
				req.Header.Set("X-Principal-ID", tc.principal(i))
				r.ServeHTTP(w, req)
				assert.Equal(t, want, w.Code, "request %d", i)
			}
		})
	}
}

func TestKeyedRateLimiter_Expiry(t *testing.T) {
	k := NewKeyedRateLimiter(rate.Limit(0.001), 1, 250*time.Millisecond)

	for i := 0; i < 100; i++ {
		k.Limiter(fmt.Sprintf("ghost-%d", i))
	}
	assert.True(t, k.Limiter("a").Allow())
	assert.False(t, k.Limiter("a").Allow())
	assert.Equal(t, 101, k.limiters.ItemCount())

	time.Sleep(400 * time.Millisecond)
	k.limiters.DeleteExpired()
	assert.Zero(t, k.limiters.ItemCount(), "idle limiters are dropped")
	assert.True(t, k.Limiter("a").Allow(), "an expired key starts with a full bucket")
}

func TestIdleTTL(t *testing.T) {
	assert.Equal(t, minIdleTTL, idleTTL(rate.Limit(10), 5))
	assert.Equal(t, 2000*time.Second, idleTTL(rate.Limit(0.001), 2))
	assert.Equal(t, minIdleTTL, idleTTL(0, 5))
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute, ByURI))
	r.GET("/types", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNotFound)
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/types")
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))
	second := get("/types")
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	get("/missing")
	get("/missing")
	assert.Equal(t, 3, calls, "errors are not cached")
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/x", func(c *gin.Context) {
		c.Set(PrincipalKey, "admin@m1")
		c.Status(http.StatusConflict)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	require.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"principal":"admin@m1"`)
	assert.Contains(t, buf.String(), `"status":409`)
	assert.Contains(t, buf.String(), `"level":"warning"`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36, "a uuid is assigned")
}
