package nutrition

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

type NutritionPlugin struct {
	provider VisionProvider
	tasks    *TaskRegistry
}

// New builds the plugin with the provider selected by cfg. An unknown
// provider name falls back to Gemini so the API still starts.
func New(cfg *config.Config) *NutritionPlugin {
	provider, err := NewProvider(cfg)
	if err != nil {
		slog.Warn("falling back to gemini provider", "error", err.Error())
		provider = NewGeminiProvider(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
	}
	return NewWithProvider(provider)
}

func NewWithProvider(provider VisionProvider) *NutritionPlugin {
	return &NutritionPlugin{provider: provider}
}

func (p *NutritionPlugin) ID() string { return "nutrition" }

func (p *NutritionPlugin) Models() []interface{} {
	return []interface{}{
		&FoodEntry{},
		&Macronutrients{},
		&Micronutrients{},
	}
}

func (p *NutritionPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	loc := cfg.Location()

	entryService := NewEntryService(db, loc)
	summaryService := NewSummaryService(db, loc)
	pipeline := NewPipeline(NewAnalyzer(p.provider), entryService, slog.Default())

	p.tasks = NewTaskRegistry(pipeline.Run, cfg.AnalysisTaskTTL)
	p.tasks.StartCleanup(time.Minute)

	analysisHandler := NewAnalysisHandler(pipeline, p.tasks)
	entryHandler := NewEntryHandler(entryService, summaryService, cfg.RecentEntriesLimit)

	// Model calls are the expensive part: 10 analyses/min per user.
	analyzeLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, err := identity.GetUserID(c); err == nil {
				return "analyze:" + id.String()
			}
			return "analyze:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return errorJSON(c, fiber.StatusTooManyRequests, "Too many analyses. Please wait a minute.")
		},
	})

	n := router.Group("/nutrition")

	// Analysis
	n.Post("/analyze", analyzeLimiter, analysisHandler.Analyze)
	n.Post("/analyze/upload", analyzeLimiter, analysisHandler.AnalyzeUpload)
	n.Post("/analyses", analyzeLimiter, analysisHandler.StartTask)
	n.Get("/analyses/:id", analysisHandler.GetTask)
	n.Delete("/analyses/:id", analysisHandler.CancelTask)

	// Entries
	n.Post("/entries", entryHandler.Create)
	n.Get("/entries", entryHandler.List)
	n.Get("/entries/:id", entryHandler.GetByID)
	n.Delete("/entries/:id", entryHandler.Delete)

	// Summaries
	n.Get("/summary/today", entryHandler.Today)
	n.Get("/summary", entryHandler.Summary)
	n.Get("/calendar", entryHandler.Calendar)
	n.Get("/recent", entryHandler.Recent)
}

// Stop cancels in-flight analyses.
func (p *NutritionPlugin) Stop() {
	if p.tasks != nil {
		p.tasks.Stop()
	}
}
