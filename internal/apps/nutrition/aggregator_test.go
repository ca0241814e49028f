package nutrition

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type mealFixture struct {
	at                            time.Time
	calories, protein, carbs, fat float64
}

func seedMeals(t *testing.T, db *gorm.DB, userID uuid.UUID, meals []mealFixture) {
	t.Helper()
	svc := NewEntryService(db, time.UTC)
	for _, m := range meals {
		_, err := svc.Save(context.Background(), SaveEntryInput{
			UserID:   userID,
			Analysis: sampleAnalysis(m.calories, m.protein, m.carbs, m.fat),
			MealSlot: MealLunch,
			EatenAt:  m.at,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func day(d, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func TestDaySummary(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	seedMeals(t, db, userID, []mealFixture{
		{day(15, 8), 450, 25, 50, 18},
		{day(15, 13), 800, 40, 90, 35},
		{day(15, 20), 600, 30, 70, 25},
	})

	svc := NewSummaryService(db, time.UTC)
	got, err := svc.Day(context.Background(), userID, "2024-01-15")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}

	want := []DailySummary{{Date: "2024-01-15", Calories: 1850, Protein: 95, Carbs: 210, Fat: 78, Meals: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Day() = %+v, want %+v", got, want)
	}
}

func TestRangeSkipsEmptyDays(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	seedMeals(t, db, userID, []mealFixture{
		{day(13, 12), 500, 20, 60, 15},
		{day(15, 12), 700, 35, 80, 25},
		{day(16, 12), 900, 40, 100, 30},
	})

	svc := NewSummaryService(db, time.UTC)
	got, err := svc.Range(context.Background(), userID, "2024-01-13", "2024-01-15")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d: %+v", len(got), got)
	}
	if got[0].Date != "2024-01-13" || got[1].Date != "2024-01-15" {
		t.Errorf("dates = %s, %s", got[0].Date, got[1].Date)
	}
	if got[0].Calories != 500 || got[1].Calories != 700 {
		t.Errorf("calories = %v, %v", got[0].Calories, got[1].Calories)
	}
}

func TestRangeEmptyAndInvalid(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	svc := NewSummaryService(db, time.UTC)

	got, err := svc.Range(context.Background(), userID, "2024-02-01", "2024-02-29")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}

	if _, err := svc.Range(context.Background(), userID, "2024-02-10", "2024-02-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
	if _, err := svc.Range(context.Background(), userID, "2024-2-1", "2024-02-01"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.Range(context.Background(), userID, "2022-01-01", "2024-01-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected overly long range to be rejected, got %v", err)
	}
}

func TestTodayWithoutEntriesIsZero(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	svc := NewSummaryService(db, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC) }

	got, err := svc.Today(context.Background(), userID)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if got != (DailySummary{Date: "2024-05-04"}) {
		t.Errorf("Today() = %+v, want zero summary", got)
	}
}

func TestSummariesAreScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	otherID := createUser(t, db)
	seedMeals(t, db, otherID, []mealFixture{{day(15, 12), 999, 9, 9, 9}})

	got, err := NewSummaryService(db, time.UTC).Day(context.Background(), userID, "2024-01-15")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no summaries for user without entries, got %+v", got)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID := createUser(t, db)
	seedMeals(t, db, userID, []mealFixture{
		{day(14, 9), 0.1, 0.2, 0.3, 0.7},
		{day(14, 10), 0.2, 0.3, 0.1, 0.1},
		{day(14, 11), 0.3, 0.1, 0.2, 0.2},
	})
	svc := NewSummaryService(db, time.UTC)

	first, err := svc.Range(context.Background(), userID, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	second, err := svc.Range(context.Background(), userID, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ: %+v vs %+v", first, second)
	}
}

func TestSummarizeIgnoresFetchOrder(t *testing.T) {
	var entries []FoodEntry
	macros := make(map[uuid.UUID]Macronutrients)
	values := []float64{0.1, 0.2, 0.3, 1e16, -1e16, 0.7, 3.3}
	for _, v := range values {
		e := FoodEntry{ID: uuid.New(), EntryDate: "2024-01-15"}
		entries = append(entries, e)
		macros[e.ID] = Macronutrients{FoodEntryID: e.ID, MacronutrientValues: MacronutrientValues{Calories: v, Protein: v / 3}}
	}
	// No macronutrient row: still a meal.
	orphan := FoodEntry{ID: uuid.New(), EntryDate: "2024-01-15"}
	entries = append(entries, orphan)

	want := Summarize(entries, macros)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]FoodEntry(nil), entries...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Summarize(shuffled, macros); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d: %+v != %+v", i, got, want)
		}
	}
	if want[0].Meals != len(values)+1 {
		t.Errorf("meals = %d, want %d", want[0].Meals, len(values)+1)
	}
}

func TestChunkIDs(t *testing.T) {
	ids := make([]uuid.UUID, 1201)
	chunks := chunkIDs(ids, inChunkSize)
	if len(chunks) != 3 || len(chunks[0]) != 500 || len(chunks[2]) != 201 {
		t.Errorf("unexpected chunking: %d chunks", len(chunks))
	}
	if chunkIDs(nil, inChunkSize) != nil {
		t.Errorf("no ids should give no chunks")
	}
}
