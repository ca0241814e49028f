package nutrition

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxRangeDays caps a single summary query.
const maxRangeDays = 366

// SummaryService reduces a user's entries to per-day totals.
type SummaryService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewSummaryService(db *gorm.DB, loc *time.Location) *SummaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryService{db: db, loc: loc, now: time.Now}
}

// Range returns one summary per date in [start, end] that has at least one
// entry, ascending by date. No entries yields an empty, non-nil slice.
func (s *SummaryService) Range(ctx context.Context, userID uuid.UUID, start, end string) ([]DailySummary, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	entries := []FoodEntry{}
	err := s.db.WithContext(ctx).Scopes(identity.ForUser(userID)).
		Select("id", "entry_date").
		Where("entry_date BETWEEN ? AND ?", start, end).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if len(entries) == 0 {
		return []DailySummary{}, nil
	}

	macros, err := fetchMacronutrients(ctx, s.db, entryIDs(entries))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return Summarize(entries, macros), nil
}

func (s *SummaryService) Day(ctx context.Context, userID uuid.UUID, date string) ([]DailySummary, error) {
	return s.Range(ctx, userID, date, date)
}

// Today always returns a summary; a day without entries is all zeros.
func (s *SummaryService) Today(ctx context.Context, userID uuid.UUID) (DailySummary, error) {
	today := s.now().In(s.loc).Format(DateLayout)
	days, err := s.Range(ctx, userID, today, today)
	if err != nil {
		return DailySummary{}, err
	}
	if len(days) == 0 {
		return DailySummary{Date: today}, nil
	}
	return days[0], nil
}

// Summarize groups entries by date and sums their macronutrients. An entry
// without a macronutrient row still counts as a meal. Rows of a day are added
// in entry-id order so the float totals are independent of fetch order.
func Summarize(entries []FoodEntry, macros map[uuid.UUID]Macronutrients) []DailySummary {
	byDate := make(map[string][]uuid.UUID)
	for _, e := range entries {
		byDate[e.EntryDate] = append(byDate[e.EntryDate], e.ID)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DailySummary, 0, len(dates))
	for _, d := range dates {
		ids := byDate[d]
		sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

		sum := DailySummary{Date: d, Meals: len(ids)}
		for _, id := range ids {
			m, ok := macros[id]
			if !ok {
				continue
			}
			sum.Calories += m.Calories
			sum.Protein += m.Protein
			sum.Carbs += m.Carbohydrates
			sum.Fat += m.TotalFat
		}
		out = append(out, sum)
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func validateDate(s string) error {
	_, err := parseDate(s)
	return err
}

func validateRange(start, end string) error {
	from, err := parseDate(start)
	if err != nil {
		return err
	}
	to, err := parseDate(end)
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange, start, end)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return fmt.Errorf("%w: more than %d days", ErrInvalidDateRange, maxRangeDays)
	}
	return nil
}
