package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

func TestHealthCheck(t *testing.T) {
	cases := []struct {
		name       string
		ping       func() error
		wantStatus string
	}{
		{"healthy", func() error { return nil }, "ok"},
		{"db down", func() error { return errors.New("connection refused") }, "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler(tc.ping, "gemini").Check)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			var body dto.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tc.wantStatus)
			}
			if body.Provider != "gemini" {
				t.Errorf("provider = %q", body.Provider)
			}
		})
	}
}
