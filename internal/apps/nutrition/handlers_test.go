package nutrition

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testAPI struct {
	app    *fiber.App
	db     *gorm.DB
	userID uuid.UUID
}

func setupAPI(t *testing.T, provider VisionProvider) *testAPI {
	t.Helper()
	db := setupTestDB(t)
	userID := createUser(t, db)

	cfg := &config.Config{Timezone: "UTC", AnalysisTaskTTL: time.Minute, RecentEntriesLimit: 5}
	plugin := NewWithProvider(provider)

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String()}))
		return c.Next()
	})
	plugin.RegisterRoutes(api, db, cfg)
	t.Cleanup(plugin.Stop)

	return &testAPI{app: app, db: db, userID: userID}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return a.send(t, req)
}

func (a *testAPI) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func analyzeBody() fiber.Map {
	return fiber.Map{
		"image_data": base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}),
		"mime_type":  "image/jpeg",
		"meal_slot":  "lunch",
		"eaten_at":   "2024-01-15T12:30:00Z",
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	api := setupAPI(t, &fakeProvider{reply: sampleReply})

	resp, data := api.do(t, "POST", "/api/v1/nutrition/analyze", analyzeBody())
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}

	var out AnalysisOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Analysis == nil || out.Entry == nil || out.Entry.EntryDate != "2024-01-15" || out.Entry.MealSlot != MealLunch {
		t.Fatalf("unexpected outcome: %s", data)
	}

	resp, data = api.do(t, "GET", "/api/v1/nutrition/entries/"+out.Entry.ID.String(), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("detail status = %d: %s", resp.StatusCode, data)
	}
	var entry FoodEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.Macronutrients == nil || entry.Macronutrients.Calories != 89 {
		t.Errorf("detail missing macronutrients: %s", data)
	}

	resp, data = api.do(t, "GET", "/api/v1/nutrition/summary?date=2024-01-15", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("summary status = %d: %s", resp.StatusCode, data)
	}
	var summary SummaryListResponse
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.Data) != 1 || summary.Data[0].Calories != 89 || summary.Data[0].Carbs != 23 || summary.Data[0].Meals != 1 {
		t.Errorf("unexpected summary: %s", data)
	}
}

func TestAnalyzeUploadEndpoint(t *testing.T) {
	api := setupAPI(t, &fakeProvider{reply: sampleReply})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "banana.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = w.WriteField("mime_type", "image/png")
	_ = w.WriteField("persist", "false")
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/v1/nutrition/analyze/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, data := api.send(t, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if n := countRows(t, api.db, &FoodEntry{}); n != 0 {
		t.Errorf("persist=false should not save, got %d entries", n)
	}
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		body     fiber.Map
		want     int
	}{
		{"upstream down", &fakeProvider{err: errors.New("timeout")}, analyzeBody(), fiber.StatusBadGateway},
		{"garbled reply", &fakeProvider{reply: "não sei"}, analyzeBody(), fiber.StatusUnprocessableEntity},
		{"missing image", &fakeProvider{reply: sampleReply}, fiber.Map{"mime_type": "image/jpeg"}, fiber.StatusBadRequest},
		{"bad base64", &fakeProvider{reply: sampleReply}, fiber.Map{"image_data": "%%%", "mime_type": "image/jpeg"}, fiber.StatusBadRequest},
		{"gif", &fakeProvider{reply: sampleReply}, fiber.Map{"image_data": "R0lGOD==", "mime_type": "image/gif"}, fiber.StatusBadRequest},
		{"bad slot", &fakeProvider{reply: sampleReply}, fiber.Map{"image_data": "/9j/", "mime_type": "image/jpeg", "meal_slot": "ceia"}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupAPI(t, tt.provider)
			resp, data := api.do(t, "POST", "/api/v1/nutrition/analyze", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.want, data)
			}
			var body struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(data, &body); err != nil || !body.Error || body.Message == "" {
				t.Errorf("unexpected error body: %s", data)
			}
		})
	}
}

func TestDataURLImage(t *testing.T) {
	img, err := decodeImageData("data:image/webp;base64,"+base64.StdEncoding.EncodeToString([]byte("webp")), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.MimeType != "image/webp" || string(img.Data) != "webp" {
		t.Errorf("unexpected image: %+v", img)
	}
	if _, err := decodeImageData("data:image/webp,abc", ""); err == nil {
		t.Errorf("non-base64 data URL should fail")
	}
}

func TestAnalysisTaskEndpoints(t *testing.T) {
	api := setupAPI(t, &fakeProvider{reply: sampleReply})

	resp, data := api.do(t, "POST", "/api/v1/nutrition/analyses", analyzeBody())
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var created TaskCreatedResponse
	if err := json.Unmarshal(data, &created); err != nil || created.TaskID == uuid.Nil {
		t.Fatalf("bad task response: %s", data)
	}

	var snap TaskSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, data = api.do(t, "GET", "/api/v1/nutrition/analyses/"+created.TaskID.String(), nil)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Status != TaskPending || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != TaskSucceeded || snap.Outcome == nil || snap.Outcome.Entry == nil {
		t.Errorf("unexpected snapshot: %s", data)
	}

	resp, _ = api.do(t, "DELETE", "/api/v1/nutrition/analyses/"+uuid.NewString(), nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("cancel unknown task status = %d", resp.StatusCode)
	}
}

func TestEntryEndpoints(t *testing.T) {
	api := setupAPI(t, &fakeProvider{reply: sampleReply})

	resp, data := api.do(t, "POST", "/api/v1/nutrition/entries", fiber.Map{
		"analysis":  sampleAnalysis(640, 32, 70, 22),
		"meal_slot": "dinner",
		"eaten_at":  "2024-01-13T20:00:00Z",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var created FoodEntry
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, data = api.do(t, "GET", "/api/v1/nutrition/entries?date=2024-01-13", nil)
	var list EntryListResponse
	if err := json.Unmarshal(data, &list); err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list failed: %d %s", resp.StatusCode, data)
	}
	if len(list.Data) != 1 || list.Data[0].ID != created.ID {
		t.Errorf("unexpected list: %s", data)
	}

	resp, data = api.do(t, "GET", "/api/v1/nutrition/calendar?year=2024&month=1", nil)
	var cal CalendarView
	if err := json.Unmarshal(data, &cal); err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("calendar failed: %d %s", resp.StatusCode, data)
	}
	if len(cal.Days) != 42 || cal.Title != "Janeiro 2024" {
		t.Errorf("unexpected calendar: %s", cal.Title)
	}
	for _, c := range cal.Days {
		if c.Date == "2024-01-13" && (!c.HasData || c.Summary.Calories != 640) {
			t.Errorf("13th should carry the entry: %+v", c)
		}
	}

	checks := []struct {
		path string
		want int
	}{
		{"/api/v1/nutrition/summary?start=2024-01-15&end=2024-01-13", fiber.StatusBadRequest},
		{"/api/v1/nutrition/summary?start=2024-01-13", fiber.StatusBadRequest},
		{"/api/v1/nutrition/entries/" + uuid.NewString(), fiber.StatusNotFound},
		{"/api/v1/nutrition/entries/not-a-uuid", fiber.StatusBadRequest},
		{"/api/v1/nutrition/calendar?month=13", fiber.StatusBadRequest},
		{"/api/v1/nutrition/summary/today", fiber.StatusOK},
		{"/api/v1/nutrition/recent?limit=3", fiber.StatusOK},
	}
	for _, c := range checks {
		resp, data := api.do(t, "GET", c.path, nil)
		if resp.StatusCode != c.want {
			t.Errorf("GET %s = %d, want %d: %s", c.path, resp.StatusCode, c.want, data)
		}
	}

	resp, _ = api.do(t, "DELETE", "/api/v1/nutrition/entries/"+created.ID.String(), nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}
