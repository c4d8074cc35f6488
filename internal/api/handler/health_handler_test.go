package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodGet, "/health", "")
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependencies_Readiness(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &HealthDependenciesHandler{checks: []dependencyCheck{
		{name: "mongodb", check: func(context.Context) error { return nil }},
		{name: "redis", check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}}

	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodGet, "/health/ready", "")
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	mr.Close()
	c, rec = newJSONContext(e, http.MethodGet, "/health/ready", "")
	_ = h.Readiness(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after redis shutdown, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}

func TestHealthDependencies_MongoDown(t *testing.T) {
	h := &HealthDependenciesHandler{checks: []dependencyCheck{
		{name: "mongodb", check: func(context.Context) error { return errors.New("no reachable servers") }},
	}}

	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodGet, "/health/ready", "")
	_ = h.Readiness(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
