package nutrition

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nutrition.db")
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &FoodEntry{}, &Macronutrients{}, &Micronutrients{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := models.User{ID: uuid.New(), Email: "ana@example.com", FullName: "Ana"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user.ID
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func sampleAnalysis(calories, protein, carbs, fat float64) *FoodAnalysis {
	conf := 0.9
	health := 72.0
	return &FoodAnalysis{
		FoodName:           "Arroz com feijão",
		FoodCategory:       "Prato pronto",
		Description:        "Arroz branco, feijão carioca e salada",
		ConfidenceScore:    &conf,
		HealthScore:        &health,
		PortionSize:        350,
		PortionDescription: "1 prato médio",
		Macronutrients: MacronutrientValues{
			Calories:      calories,
			Protein:       protein,
			Carbohydrates: carbs,
			TotalFat:      fat,
			DietaryFiber:  8.5,
			Sodium:        420,
		},
		Micronutrients: MicronutrientValues{
			VitaminC: 12.5,
			Iron:     3.1,
			Calcium:  85,
			Selenium: 4.2,
		},
		Insights: Insights{
			HealthBenefits:    []string{"Boa fonte de proteína vegetal"},
			PotentialConcerns: []string{"Sódio moderado"},
		},
	}
}

const sampleReply = `{"foodAnalysis": {"food_name": "Banana", "food_category": "Frutas", "description": "Uma banana prata madura", "confidence_score": 0.95, "health_score": 88, "portion_size": 100, "portion_description": "1 unidade média", "macronutrients": {"calories": 89, "protein": 1.1, "carbohydrates": 22.8, "dietary_fiber": 2.6, "total_fat": 0.3, "sugar": 12.2}, "micronutrients": {"vitamin_c": 8.7, "potassium": 358, "vitamin_b6_pyridoxine": 0.4}, "health_benefits": ["Rica em potássio"], "potential_concerns": [], "preparation_tips": ["Consuma madura"], "storage_recommendations": ["Temperatura ambiente"]}}`

// fakeProvider returns a canned reply and records what it was sent.
type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMime string
	onCall   func(ctx context.Context) error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, img Image) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastMime = img.MimeType
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		if err := onCall(ctx); err != nil {
			return "", err
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failInsertsInto makes every create against table fail.
func failInsertsInto(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errDiskFull)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}
}
