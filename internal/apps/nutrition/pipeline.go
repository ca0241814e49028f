package nutrition

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

type AnalyzeRequest struct {
	Image    Image
	MealSlot MealSlot
	ImageURL *string
	EatenAt  time.Time
	Persist  bool
}

// AnalysisOutcome carries the analysis even when saving it failed.
type AnalysisOutcome struct {
	Analysis     *FoodAnalysis `json:"analysis"`
	Entry        *FoodEntry    `json:"entry,omitempty"`
	PersistError string        `json:"persist_error,omitempty"`
}

// Pipeline runs analysis followed by an optional best-effort save.
type Pipeline struct {
	analyzer *Analyzer
	entries  *EntryService
	logger   *slog.Logger
}

func NewPipeline(analyzer *Analyzer, entries *EntryService, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{analyzer: analyzer, entries: entries, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context, userID uuid.UUID, req AnalyzeRequest) (*AnalysisOutcome, error) {
	slot := req.MealSlot
	if req.Persist {
		parsed, err := ParseMealSlot(string(req.MealSlot))
		if err != nil {
			return nil, err
		}
		slot = parsed
	}

	start := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, req.Image)
	if err != nil {
		p.logger.WarnContext(ctx, "food analysis failed",
			"user_id", userID.String(),
			"provider", p.analyzer.ProviderName(),
			"latency_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}
	p.logger.InfoContext(ctx, "food analyzed",
		"user_id", userID.String(),
		"provider", p.analyzer.ProviderName(),
		"food_name", analysis.FoodName,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	out := &AnalysisOutcome{Analysis: analysis}
	if !req.Persist {
		return out, nil
	}
	// A cancelled analysis must not leave an entry behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saveStart := time.Now()
	entry, err := p.entries.Save(ctx, SaveEntryInput{
		UserID:   userID,
		Analysis: analysis,
		ImageURL: req.ImageURL,
		MealSlot: slot,
		EatenAt:  req.EatenAt,
	})
	if err != nil {
		p.reportPersistFailure(ctx, userID, slot, err, time.Since(saveStart))
		out.PersistError = publicMessage(err)
		return out, nil
	}

	out.Entry = entry
	return out, nil
}

func (p *Pipeline) reportPersistFailure(ctx context.Context, userID uuid.UUID, slot MealSlot, err error, latency time.Duration) {
	stage := persistStage(err)
	p.logger.ErrorContext(ctx, "failed to persist food entry",
		"stage", stage,
		"user_id", userID.String(),
		"meal_slot", string(slot),
		"latency_ms", latency.Milliseconds(),
		"error", err.Error(),
	)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", stage)
		scope.SetTag("meal_slot", string(slot))
		scope.SetUser(sentry.User{ID: userID.String()})
		hub.CaptureException(err)
	})
}
