package nutrition

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DashboardView is a DailySummary rounded for display.
type DashboardView struct {
	Date     string `json:"date"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
	Meals    int    `json:"meals"`
}

func Dashboard(s DailySummary) DashboardView {
	return DashboardView{
		Date:     s.Date,
		Calories: roundInt(s.Calories),
		Protein:  roundInt(s.Protein),
		Carbs:    roundInt(s.Carbs),
		Fat:      roundInt(s.Fat),
		Meals:    s.Meals,
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// =============================================================================
// Calendar
// =============================================================================

const calendarCells = 42

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

type CalendarCell struct {
	Date           string         `json:"date"`
	Day            int            `json:"day"`
	InCurrentMonth bool           `json:"in_current_month"`
	IsToday        bool           `json:"is_today"`
	HasData        bool           `json:"has_data"`
	Summary        *DashboardView `json:"summary,omitempty"`
}

type CalendarView struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Title string         `json:"title"`
	Days  []CalendarCell `json:"days"`
}

// CalendarBounds returns the first and last date shown on the month grid.
func CalendarBounds(year int, month time.Month) (string, string) {
	first := gridStart(year, month)
	return first.Format(DateLayout), first.AddDate(0, 0, calendarCells-1).Format(DateLayout)
}

// gridStart is the Sunday on or before the first of the month.
func gridStart(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// CalendarMonth lays out a six-week grid. Summaries for dates outside the
// grid are ignored.
func CalendarMonth(year int, month time.Month, summaries []DailySummary, today string) CalendarView {
	byDate := make(map[string]DailySummary, len(summaries))
	for _, s := range summaries {
		byDate[s.Date] = s
	}

	view := CalendarView{
		Year:  year,
		Month: int(month),
		Title: fmt.Sprintf("%s %d", monthNames[month-1], year),
		Days:  make([]CalendarCell, 0, calendarCells),
	}

	day := gridStart(year, month)
	for i := 0; i < calendarCells; i++ {
		date := day.Format(DateLayout)
		cell := CalendarCell{
			Date:           date,
			Day:            day.Day(),
			InCurrentMonth: day.Month() == month,
			IsToday:        date == today,
		}
		if s, ok := byDate[date]; ok {
			d := Dashboard(s)
			cell.HasData = true
			cell.Summary = &d
		}
		view.Days = append(view.Days, cell)
		day = day.AddDate(0, 0, 1)
	}
	return view
}

// =============================================================================
// Recent entries
// =============================================================================

type RecentEntryView struct {
	ID        string    `json:"id"`
	FoodName  string    `json:"food_name"`
	MealSlot  MealSlot  `json:"meal_slot"`
	MealLabel string    `json:"meal_label"`
	TimeLabel string    `json:"time_label"`
	Calories  int       `json:"calories"`
	ImageURL  *string   `json:"image_url,omitempty"`
	EatenAt   time.Time `json:"eaten_at"`
}

// RecentEntries formats entries newest first.
func RecentEntries(entries []FoodEntry, now time.Time, loc *time.Location) []RecentEntryView {
	if loc == nil {
		loc = time.UTC
	}
	views := make([]RecentEntryView, 0, len(entries))
	for _, e := range entries {
		v := RecentEntryView{
			ID:        e.ID.String(),
			FoodName:  e.FoodName,
			MealSlot:  e.MealSlot,
			MealLabel: MealLabel(e.MealSlot),
			TimeLabel: TimeLabel(e.EatenAt, now, loc),
			ImageURL:  e.ImageURL,
			EatenAt:   e.EatenAt,
		}
		if e.Macronutrients != nil {
			v.Calories = roundInt(e.Macronutrients.Calories)
		}
		views = append(views, v)
	}
	sortNewestFirst(views)
	return views
}

func sortNewestFirst(views []RecentEntryView) {
	sort.SliceStable(views, func(i, j int) bool { return views[i].EatenAt.After(views[j].EatenAt) })
}

func MealLabel(slot MealSlot) string {
	switch slot {
	case MealBreakfast:
		return "Café da manhã"
	case MealLunch:
		return "Almoço"
	case MealDinner:
		return "Jantar"
	case MealSnack:
		return "Lanche"
	default:
		return "Refeição"
	}
}

// TimeLabel is "Hoje, HH:MM" for the current local day and "DD/MM, HH:MM"
// otherwise.
func TimeLabel(t, now time.Time, loc *time.Location) string {
	local := t.In(loc)
	if local.Format(DateLayout) == now.In(loc).Format(DateLayout) {
		return "Hoje, " + local.Format("15:04")
	}
	return local.Format("02/01, 15:04")
}
