package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/phonepilot/advisor-engine/cmd/advisor-api/handlers"
	"github.com/phonepilot/advisor-engine/internal/observability"
)

func TestHealthEndpoint(t *testing.T) {
	chat := handlers.NewChatHandler(observability.Nop(), nil)
	router := NewRouter(observability.Nop(), chat, nil, 30*time.Second)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReadyEndpoint(t *testing.T) {
	chat := handlers.NewChatHandler(observability.Nop(), nil)

	t.Run("ready", func(t *testing.T) {
		router := NewRouter(observability.Nop(), chat, func(context.Context) error { return nil }, 30*time.Second)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable", func(t *testing.T) {
		router := NewRouter(observability.Nop(), chat, func(context.Context) error { return errors.New("db down") }, 30*time.Second)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	chat := handlers.NewChatHandler(observability.Nop(), nil)
	router := NewRouter(observability.Nop(), chat, nil, 30*time.Second)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
