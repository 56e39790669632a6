package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/orchestrator"
	domscreening "github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/interfaces/http/handlers"
)

type stubProcessor struct {
	outcome *orchestrator.Outcome
}

func (s *stubProcessor) Process(_ context.Context, _ *orchestrator.Request) (*orchestrator.Outcome, error) {
	return s.outcome, nil
}

func newTestRouter() http.Handler {
	log := logging.NewNopLogger()
	return NewRouter(RouterConfig{
		ScreenHandler: handlers.NewScreenHandler(&stubProcessor{
			outcome: &orchestrator.Outcome{RequestID: "req-1", Mode: orchestrator.ModeAsync, Accepted: true},
		}, log),
		KeywordsHandler: handlers.NewKeywordsHandler(domscreening.NewKeywordCatalog(), log),
		HealthHandler:   handlers.NewHealthHandler(nil, "test"),
		Logger:          log,
	})
}

func TestRouterScreenRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screen",
		strings.NewReader(`{"query":"Acme Corp fraud","mode":"async"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouterAppliesSecurityHeaders(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/keywords", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/keywords", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
