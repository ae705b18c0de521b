package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/models"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func newAuthApp(keys []string, enabled bool) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), keys, enabled))
	app.Get("/v1/subjects", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"64 chars", generateAPIKey(64), true},
		{"31 chars", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", "                                ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := map[string]string{
		"abcdefghijklmnop": "abcd****",
		"abcde":            "abcd****",
		"abcd":             "****",
		"":                 "****",
	}
	for key, want := range tests {
		if got := maskAPIKey(key); got != want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/subjects", nil))
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	validKey := generateAPIKey(32)
	otherKey := generateAPIKey(40)
	app := newAuthApp([]string{validKey, otherKey, "too-short"}, true)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"X-API-Key header", "X-API-Key", validKey, fiber.StatusOK},
		{"second configured key", "X-API-Key", otherKey, fiber.StatusOK},
		{"Bearer token", "Authorization", "Bearer " + validKey, fiber.StatusOK},
		{"plain Authorization", "Authorization", validKey, fiber.StatusOK},
		{"missing key", "", "", fiber.StatusUnauthorized},
		{"wrong key", "X-API-Key", validKey + "x", fiber.StatusUnauthorized},
		{"prefix of a key", "X-API-Key", validKey[:31], fiber.StatusUnauthorized},
		{"short configured key ignored", "X-API-Key", "too-short", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/subjects", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			if tt.wantStatus == fiber.StatusUnauthorized {
				var body models.ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode body: %v", err)
				}
				if body.Error.Code != "UNAUTHORIZED" {
					t.Errorf("Expected code UNAUTHORIZED, got %q", body.Error.Code)
				}
				if body.Error.Path != "/v1/subjects" {
					t.Errorf("Expected path /v1/subjects, got %q", body.Error.Path)
				}
			}
		})
	}
}

func TestAPIKeyAuth_NoUsableKeys(t *testing.T) {
	app := newAuthApp([]string{"a", "short", generateAPIKey(31)}, true)

	for _, key := range []string{"a", "short", generateAPIKey(31)} {
		req := httptest.NewRequest("GET", "/v1/subjects", nil)
		req.Header.Set("X-API-Key", key)

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to test request: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("Weak key %q should be rejected, got status %d", maskAPIKey(key), resp.StatusCode)
		}
	}
}
