package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakeDependency struct {
	name string
	err  error
}

func (f fakeDependency) Name() string                 { return f.name }
func (f fakeDependency) Ping(_ context.Context) error { return f.err }

func serveReadiness(t *testing.T, h *HealthDependenciesHandler) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	var body readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, body
}

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := NewHealthHandler().Liveness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	rec, body := serveReadiness(t, NewHealthDependenciesHandler(
		fakeDependency{name: "sqlite3"}, fakeDependency{name: "redis"},
	))
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected ok, got %d %+v", rec.Code, body)
	}
	if len(body.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %+v", body.Dependencies)
	}
}

func TestReadiness_Degraded(t *testing.T) {
	rec, body := serveReadiness(t, NewHealthDependenciesHandler(
		fakeDependency{name: "mongodb"}, fakeDependency{name: "redis", err: errors.New("connection refused")},
	))
	if rec.Code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("expected degraded, got %d %+v", rec.Code, body)
	}
	if body.Dependencies["redis"].Error != "connection refused" {
		t.Fatalf("expected redis error to be reported, got %+v", body.Dependencies["redis"])
	}
	if body.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("expected mongodb ok, got %+v", body.Dependencies["mongodb"])
	}
}
