package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "profile.db")
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestGetOrCreate(t *testing.T) {
	svc := NewProfileService(setupTestDB(t))
	claims := &identity.Claims{UserID: uuid.New(), Email: "ana@example.com", FullName: "Ana Souza"}

	first, err := svc.GetOrCreate(context.Background(), claims)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.FullName != "Ana Souza" || first.Email != "ana@example.com" {
		t.Errorf("unexpected profile: %+v", first)
	}

	if _, err := svc.UpdateFullName(context.Background(), claims.UserID, "Ana S."); err != nil {
		t.Fatalf("UpdateFullName: %v", err)
	}

	claims.Email = "ana@new.example.com"
	second, err := svc.GetOrCreate(context.Background(), claims)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if second.ID != first.ID || second.FullName != "Ana S." || second.Email != "ana@new.example.com" {
		t.Errorf("unexpected profile after second contact: %+v", second)
	}
}

func TestUpdateFullNameValidation(t *testing.T) {
	svc := NewProfileService(setupTestDB(t))

	for _, name := range []string{"", "   ", strings.Repeat("a", 121)} {
		if _, err := svc.UpdateFullName(context.Background(), uuid.New(), name); !errors.Is(err, ErrInvalidFullName) {
			t.Errorf("UpdateFullName(%d chars) error = %v", len(name), err)
		}
	}
	if _, err := svc.UpdateFullName(context.Background(), uuid.New(), "Bruno"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	// 120 multi-byte runes are within the limit.
	if _, err := svc.UpdateFullName(context.Background(), uuid.New(), strings.Repeat("ç", 120)); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("120 runes should pass validation, got %v", err)
	}
}

func TestProfileEndpoints(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.New()

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":           userID.String(),
			"email":         "carla@example.com",
			"user_metadata": map[string]interface{}{"full_name": "Carla"},
		}))
		return c.Next()
	})
	New().RegisterRoutes(api, db, &config.Config{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK || user.ID != userID || user.FullName != "Carla" {
		t.Errorf("unexpected profile %d: %+v", resp.StatusCode, user)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"full_name": "Carla Dias"}`, fiber.StatusOK},
		{`{"full_name": ""}`, fiber.StatusBadRequest},
		{`{"full_name": "` + strings.Repeat("x", 121) + `"}`, fiber.StatusBadRequest},
		{`not json`, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("PUT", "/api/v1/profile", bytes.NewReader([]byte(tt.body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != tt.want {
			body, _ := io.ReadAll(resp.Body)
			t.Errorf("PUT %s = %d, want %d: %s", tt.body, resp.StatusCode, tt.want, body)
		}
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", userID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.FullName != "Carla Dias" {
		t.Errorf("full name = %q", stored.FullName)
	}
}
