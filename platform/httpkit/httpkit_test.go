package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lead_automation_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleErrorMapsWrappedKinds(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/missing", func(c *gin.Context) {
		HandleError(c, errors.Join(errors.New("ctx"), apperr.NotFound("lead x not found")))
	})
	engine.GET("/boom", func(c *gin.Context) {
		HandleError(c, errors.New("disk on fire"))
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := serve(engine, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "lead x not found", body.Error)
	assert.Equal(t, "req-42", body.Action)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
	assert.NotEmpty(t, body.Action)
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, nil)
	engine := gin.New()
	engine.POST("/hook", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(engine, httptest.NewRequest(http.MethodPost, "/hook", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestActionGateReleasesAfterHandler(t *testing.T) {
	gate := NewActionGate()
	engine := gin.New()
	engine.POST("/act", gate.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := serve(engine, httptest.NewRequest(http.MethodPost, "/act", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
