package nutrition

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout is the format of FoodEntry.EntryDate and every date parameter.
const DateLayout = "2006-01-02"

type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealSnack     MealSlot = "snack"
)

var mealSlots = []MealSlot{MealBreakfast, MealLunch, MealDinner, MealSnack}

func (m MealSlot) Valid() bool {
	for _, s := range mealSlots {
		if m == s {
			return true
		}
	}
	return false
}

// ParseMealSlot normalizes a slot name. An empty value means snack.
func ParseMealSlot(s string) (MealSlot, error) {
	normalized := MealSlot(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return MealSnack, nil
	}
	if !normalized.Valid() {
		return "", ErrInvalidMealSlot
	}
	return normalized, nil
}

// FoodEntry is one analyzed meal. It owns exactly one Macronutrients and one
// Micronutrients row, written in the same transaction.
type FoodEntry struct {
	ID                 uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID                    `gorm:"type:uuid;not null;index:idx_food_entries_user_date,priority:1" json:"user_id"`
	EntryDate          string                       `gorm:"type:varchar(10);not null;index:idx_food_entries_user_date,priority:2" json:"date"`
	EatenAt            time.Time                    `gorm:"not null" json:"eaten_at"`
	MealSlot           MealSlot                     `gorm:"type:varchar(20);not null;check:chk_food_entries_meal_slot,meal_slot IN ('breakfast','lunch','dinner','snack')" json:"meal_slot"`
	FoodName           string                       `gorm:"type:text;not null" json:"food_name"`
	FoodCategory       string                       `gorm:"type:text" json:"food_category"`
	Description        string                       `gorm:"type:text" json:"description"`
	ImageURL           *string                      `gorm:"type:text" json:"image_url,omitempty"`
	PortionSize        float64                      `json:"portion_size"`
	PortionDescription string                       `gorm:"type:text" json:"portion_description"`
	ConfidenceScore    *float64                     `json:"confidence_score,omitempty"`
	HealthScore        *int                         `json:"health_score,omitempty"`
	Insights           datatypes.JSONType[Insights] `json:"insights"`
	CreatedAt          time.Time                    `json:"created_at"`

	User           models.User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Macronutrients *Macronutrients `gorm:"foreignKey:FoodEntryID;constraint:OnDelete:CASCADE" json:"macronutrients,omitempty"`
	Micronutrients *Micronutrients `gorm:"foreignKey:FoodEntryID;constraint:OnDelete:CASCADE" json:"micronutrients,omitempty"`
}

func (FoodEntry) TableName() string {
	return "food_entries"
}

func (e *FoodEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Insights holds the qualitative notes of an analysis.
type Insights struct {
	HealthBenefits         []string `json:"health_benefits"`
	PotentialConcerns      []string `json:"potential_concerns"`
	PreparationTips        []string `json:"preparation_tips"`
	StorageRecommendations []string `json:"storage_recommendations"`
}

// MacronutrientValues are grams unless noted.
type MacronutrientValues struct {
	Calories           float64 `json:"calories"` // kcal
	Protein            float64 `json:"protein"`
	Carbohydrates      float64 `json:"carbohydrates"`
	DietaryFiber       float64 `json:"dietary_fiber"`
	NetCarbs           float64 `json:"net_carbs"`
	TotalFat           float64 `json:"total_fat"`
	SaturatedFat       float64 `json:"saturated_fat"`
	TransFat           float64 `json:"trans_fat"`
	MonounsaturatedFat float64 `json:"monounsaturated_fat"`
	PolyunsaturatedFat float64 `json:"polyunsaturated_fat"`
	Cholesterol        float64 `json:"cholesterol"` // mg
	Sodium             float64 `json:"sodium"`      // mg
	Sugar              float64 `json:"sugar"`
	AddedSugar         float64 `json:"added_sugar"`
}

type Macronutrients struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	FoodEntryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"food_entry_id"`
	MacronutrientValues
	CreatedAt time.Time `json:"-"`
}

func (Macronutrients) TableName() string {
	return "macronutrients"
}

func (m *Macronutrients) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MicronutrientValues: mcg for vitamins A, D, K, B7, B9, B12 and for
// selenium, iodine, chromium, molybdenum; mg for everything else.
type MicronutrientValues struct {
	VitaminA                 float64 `json:"vitamin_a"`
	VitaminC                 float64 `json:"vitamin_c"`
	VitaminD                 float64 `json:"vitamin_d"`
	VitaminE                 float64 `json:"vitamin_e"`
	VitaminK                 float64 `json:"vitamin_k"`
	VitaminB1Thiamine        float64 `json:"vitamin_b1_thiamine"`
	VitaminB2Riboflavin      float64 `json:"vitamin_b2_riboflavin"`
	VitaminB3Niacin          float64 `json:"vitamin_b3_niacin"`
	VitaminB5PantothenicAcid float64 `json:"vitamin_b5_pantothenic_acid"`
	VitaminB6Pyridoxine      float64 `json:"vitamin_b6_pyridoxine"`
	VitaminB7Biotin          float64 `json:"vitamin_b7_biotin"`
	VitaminB9Folate          float64 `json:"vitamin_b9_folate"`
	VitaminB12Cobalamin      float64 `json:"vitamin_b12_cobalamin"`
	Calcium                  float64 `json:"calcium"`
	Iron                     float64 `json:"iron"`
	Magnesium                float64 `json:"magnesium"`
	Phosphorus               float64 `json:"phosphorus"`
	Potassium                float64 `json:"potassium"`
	Zinc                     float64 `json:"zinc"`
	Copper                   float64 `json:"copper"`
	Manganese                float64 `json:"manganese"`
	Selenium                 float64 `json:"selenium"`
	Iodine                   float64 `json:"iodine"`
	Chromium                 float64 `json:"chromium"`
	Molybdenum               float64 `json:"molybdenum"`
}

type Micronutrients struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	FoodEntryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"food_entry_id"`
	MicronutrientValues
	CreatedAt time.Time `json:"-"`
}

func (Micronutrients) TableName() string {
	return "micronutrients"
}

func (m *Micronutrients) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// FoodAnalysis is the object the model returns under "foodAnalysis".
type FoodAnalysis struct {
	FoodName           string              `json:"food_name"`
	FoodCategory       string              `json:"food_category"`
	Description        string              `json:"description"`
	ConfidenceScore    *float64            `json:"confidence_score,omitempty"`
	HealthScore        *float64            `json:"health_score,omitempty"`
	PortionSize        float64             `json:"portion_size"`
	PortionDescription string              `json:"portion_description"`
	Macronutrients     MacronutrientValues `json:"macronutrients"`
	Micronutrients     MicronutrientValues `json:"micronutrients"`
	Insights
}

// DailySummary is the per-day reduction of a user's entries. Values are
// unrounded; rounding happens in the presentation views.
type DailySummary struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int     `json:"meals"`
}

// =============================================================================
// Request / response DTOs
// =============================================================================

type AnalyzeImageRequest struct {
	// ImageData is base64, optionally as a data: URL.
	ImageData string     `json:"image_data" validate:"required"`
	MimeType  string     `json:"mime_type"`
	MealSlot  string     `json:"meal_slot" validate:"omitempty,max=20"`
	ImageURL  string     `json:"image_url" validate:"omitempty,url,max=2048"`
	EatenAt   *time.Time `json:"eaten_at"`
	Persist   *bool      `json:"persist"`
}

type CreateEntryRequest struct {
	Analysis *FoodAnalysis `json:"analysis" validate:"required"`
	MealSlot string        `json:"meal_slot" validate:"omitempty,max=20"`
	ImageURL string        `json:"image_url" validate:"omitempty,url,max=2048"`
	EatenAt  *time.Time    `json:"eaten_at"`
}

type TaskCreatedResponse struct {
	TaskID uuid.UUID  `json:"task_id"`
	Status TaskStatus `json:"status"`
}

type EntryListResponse struct {
	Date string      `json:"date"`
	Data []FoodEntry `json:"data"`
}

type SummaryListResponse struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Data  []DashboardView `json:"data"`
}

type RecentEntriesResponse struct {
	Date string            `json:"date"`
	Data []RecentEntryView `json:"data"`
}
