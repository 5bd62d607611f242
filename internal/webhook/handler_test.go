package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "lead_automation_backend/internal/http"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/platform/httpkit"
	"lead_automation_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewModule(f.processor, httpkit.NewIPRateLimiter(100, 100, logger.Discard())).RegisterRoutes(&apphttp.RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
		Gate:   httpkit.NewActionGate(),
	})
	return engine
}

func post(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/calls", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleCallEvent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)
	engine := newRouter(f)

	rec := post(engine, `{"leadId":"ann@example.com","eventKind":"call.completed","transcript":"Please send a proposal"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ProposalSent", resp.Status)
	assert.True(t, resp.ProposalRequested)
	require.NotNil(t, resp.Proposal)
	assert.Equal(t, "static", resp.Proposal.Backend)

	rec = post(engine, `{"leadId":"ann@example.com","eventKind":"call.completed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCallEventErrors(t *testing.T) {
	f := newFixture(t)
	engine := newRouter(f)

	assert.Equal(t, http.StatusBadRequest, post(engine, `not json`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, post(engine, `{"leadId":"ghost@example.com","eventKind":"call.completed"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, post(engine, `{"leadId":"ghost@example.com","eventKind":"call.dropped"}`).Code)
}
