package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.StatusCode != http.StatusOK {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestHealthHandlerReportsStoreFailure(t *testing.T) {
	handler := HealthHandler{Check: func(ctx context.Context) error { return errors.New("connection refused") }}

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "store unavailable" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
