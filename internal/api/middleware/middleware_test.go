package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

func TestSetupMiddleware(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e)
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "test")
	})

	t.Run("リクエストIDをUUIDで採番する", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
		assert.NoError(t, err)
	})

	t.Run("既存のリクエストIDを維持する", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(echo.HeaderXRequestID, "existing-request-id")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "existing-request-id", rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("パニックから回復する", func(t *testing.T) {
		e.GET("/panic", func(c echo.Context) error { panic("boom") })
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name     string
		handler  echo.HandlerFunc
		expected int
	}{
		{"正常", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, http.StatusOK},
		{"HTTPError", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") }, http.StatusBadRequest},
		{"ドメインエラー", func(c echo.Context) error { return seat.ErrSeatsAlreadyReserved }, http.StatusConflict},
		{"サーバーエラー", func(c echo.Context) error { return c.String(http.StatusInternalServerError, "ng") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/test")

			err := RequestLogger()(tt.handler)(c)
			assert.Equal(t, tt.expected, responseStatus(c, err))
		})
	}
}

func TestPrometheusMiddleware(t *testing.T) {
	e := echo.New()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	e.Use(PrometheusMiddleware(m))

	e.GET("/events/:event_id/seats", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/events/:event_id/holds", func(c echo.Context) error {
		return seat.ErrSeatsAlreadyReserved
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/"+id+"/seats", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events/a/holds", nil))

	// パスパラメータは集約される
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/events/:event_id/seats", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/events/:event_id/holds", "409")))
}
