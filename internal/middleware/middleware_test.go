package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Minute), Burst: 2})
	r := gin.New()
	r.Use(RequestID(), limiter.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}

	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.1")).Code)
	limited := serve(r, req("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.2")).Code)
}

func TestCORSPreflight(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowOrigins = []string{"https://portal.example.com"}
	config.MaxAge = 600

	r := gin.New()
	r.Use(CORS(config))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	assert.Empty(t, serve(r, other).Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorHandlerWritesOnlyWhenNothingWasWritten(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/silent", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/handled", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
	})

	silent := serve(r, httptest.NewRequest(http.MethodGet, "/silent", nil))
	assert.Equal(t, http.StatusInternalServerError, silent.Code)
	assert.Contains(t, silent.Body.String(), "trace_id")

	handled := serve(r, httptest.NewRequest(http.MethodGet, "/handled", nil))
	assert.Equal(t, http.StatusBadRequest, handled.Code)
	assert.JSONEq(t, `{"ok":false}`, handled.Body.String())
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/", func(c *gin.Context) { panic("nil map") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "req-1")
	w := serve(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"trace_id":"req-1"`)
	assert.Equal(t, "req-1", w.Header().Get(HeaderXRequestID))
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 8}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	assert.Equal(t, http.StatusOK, serve(r, small).Code)

	large := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, large).Code)
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Cache(PublicProfileCacheConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=300", get.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept", get.Header().Get("Vary"))

	post := serve(r, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "no-store", post.Header().Get("Cache-Control"))
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(DefaultTimeoutConfig()))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
