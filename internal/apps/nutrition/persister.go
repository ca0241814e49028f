package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntryService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewEntryService(db *gorm.DB, loc *time.Location) *EntryService {
	if loc == nil {
		loc = time.UTC
	}
	return &EntryService{db: db, loc: loc, now: time.Now}
}

type SaveEntryInput struct {
	UserID   uuid.UUID
	Analysis *FoodAnalysis
	ImageURL *string
	MealSlot MealSlot
	// EatenAt defaults to now.
	EatenAt time.Time
}

// Save writes the entry and its two nutrient rows in one transaction. Either
// all three rows exist afterwards or none do.
func (s *EntryService) Save(ctx context.Context, in SaveEntryInput) (*FoodEntry, error) {
	if in.Analysis == nil {
		return nil, ErrAnalysisRequired
	}
	slot, err := ParseMealSlot(string(in.MealSlot))
	if err != nil {
		return nil, err
	}

	eatenAt := in.EatenAt
	if eatenAt.IsZero() {
		eatenAt = s.now()
	}

	a := in.Analysis
	entry := &FoodEntry{
		UserID:             in.UserID,
		EntryDate:          eatenAt.In(s.loc).Format(DateLayout),
		EatenAt:            eatenAt.UTC(),
		MealSlot:           slot,
		FoodName:           a.FoodName,
		FoodCategory:       a.FoodCategory,
		Description:        a.Description,
		ImageURL:           in.ImageURL,
		PortionSize:        a.PortionSize,
		PortionDescription: a.PortionDescription,
		ConfidenceScore:    clampConfidence(a.ConfidenceScore),
		HealthScore:        clampHealthScore(a.HealthScore),
		Insights:           datatypes.NewJSONType(a.Insights),
	}
	macro := &Macronutrients{MacronutrientValues: a.Macronutrients}
	micro := &Micronutrients{MicronutrientValues: a.Micronutrients}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrParentInsertFailed, err)
		}
		macro.FoodEntryID = entry.ID
		if err := tx.Create(macro).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrMacronutrientInsertFailed, err)
		}
		micro.FoodEntryID = entry.ID
		if err := tx.Create(micro).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrMicronutrientInsertFailed, err)
		}
		return nil
	})
	if err != nil {
		if persistStage(err) == "unknown" {
			err = fmt.Errorf("%w: %w", ErrParentInsertFailed, err)
		}
		return nil, err
	}

	entry.Macronutrients = macro
	entry.Micronutrients = micro
	return entry, nil
}

// Entry returns one of the user's entries with both nutrient rows.
func (s *EntryService) Entry(ctx context.Context, userID, id uuid.UUID) (*FoodEntry, error) {
	var entry FoodEntry
	err := s.db.WithContext(ctx).Scopes(identity.ForUser(userID)).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	entries := []FoodEntry{entry}
	if err := attachNutrients(ctx, s.db, entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return &entries[0], nil
}

// EntriesByDate lists a day's entries by eaten_at ascending.
func (s *EntryService) EntriesByDate(ctx context.Context, userID uuid.UUID, date string) ([]FoodEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	entries := []FoodEntry{}
	err := s.db.WithContext(ctx).Scopes(identity.ForUser(userID)).
		Where("entry_date = ?", date).
		Order("eaten_at ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if err := attachNutrients(ctx, s.db, entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return entries, nil
}

// RecentToday returns up to limit of today's entries, newest first.
func (s *EntryService) RecentToday(ctx context.Context, userID uuid.UUID, limit int) ([]FoodEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	today := s.Today()

	entries := []FoodEntry{}
	err := s.db.WithContext(ctx).Scopes(identity.ForUser(userID)).
		Where("entry_date = ?", today).
		Order("eaten_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if err := attachNutrients(ctx, s.db, entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return entries, nil
}

// Delete removes an entry. Nutrient rows go with it through the cascade,
// and are deleted explicitly as well for databases without enforced FKs.
func (s *EntryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Scopes(identity.ForUser(userID)).Where("id = ?", id).Delete(&FoodEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEntryNotFound
		}
		if err := tx.Where("food_entry_id = ?", id).Delete(&Macronutrients{}).Error; err != nil {
			return err
		}
		return tx.Where("food_entry_id = ?", id).Delete(&Micronutrients{}).Error
	})
}

// Today is the current calendar date in the service's location.
func (s *EntryService) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

func (s *EntryService) Location() *time.Location {
	return s.loc
}

func clampConfidence(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := math.Min(math.Max(*v, 0), 1)
	return &c
}

func clampHealthScore(v *float64) *int {
	if v == nil {
		return nil
	}
	h := int(math.Round(math.Min(math.Max(*v, 0), 100)))
	return &h
}
