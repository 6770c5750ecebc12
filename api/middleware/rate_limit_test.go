package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(rate.Limit(1), 3, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := handler(c)
		if err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			statuses = append(statuses, he.Code)
			continue
		}
		statuses = append(statuses, rec.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(rate.Limit(1), 1, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func(addr string) error {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		return handler(e.NewContext(req, rec))
	}

	require.NoError(t, call("192.0.2.1:1"))
	require.Error(t, call("192.0.2.1:1"))
	require.NoError(t, call("192.0.2.2:1"))
}
