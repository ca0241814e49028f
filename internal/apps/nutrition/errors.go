package nutrition

import (
	"context"
	"errors"
)

var (
	ErrUpstreamUnavailable  = errors.New("analysis provider unavailable")
	ErrInvalidModelResponse = errors.New("invalid model response")

	ErrParentInsertFailed        = errors.New("failed to insert food entry")
	ErrMacronutrientInsertFailed = errors.New("failed to insert macronutrients")
	ErrMicronutrientInsertFailed = errors.New("failed to insert micronutrients")
	ErrFetchFailed               = errors.New("failed to fetch food entries")

	ErrEmptyImage          = errors.New("image is empty")
	ErrUnsupportedMimeType = errors.New("unsupported image type")
	ErrAnalysisRequired    = errors.New("analysis is required")
	ErrInvalidMealSlot     = errors.New("meal slot must be one of breakfast, lunch, dinner, snack")
	ErrInvalidDate         = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrEntryNotFound       = errors.New("food entry not found")
	ErrTaskNotFound        = errors.New("analysis task not found")
)

// persistStage names the insert that failed, for logs.
func persistStage(err error) string {
	switch {
	case errors.Is(err, ErrParentInsertFailed):
		return "food_entry"
	case errors.Is(err, ErrMacronutrientInsertFailed):
		return "macronutrients"
	case errors.Is(err, ErrMicronutrientInsertFailed):
		return "micronutrients"
	default:
		return "unknown"
	}
}

// publicMessage is the client-facing text for err. Storage and provider
// details are not exposed.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return "Food analysis service is unavailable. Please try again."
	case errors.Is(err, ErrInvalidModelResponse):
		return "Could not understand the analysis result. Please try another photo."
	case errors.Is(err, ErrParentInsertFailed),
		errors.Is(err, ErrMacronutrientInsertFailed),
		errors.Is(err, ErrMicronutrientInsertFailed):
		return "Failed to save food entry"
	case errors.Is(err, ErrFetchFailed):
		return "Failed to load food entries"
	case errors.Is(err, context.Canceled):
		return "Analysis cancelled"
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrTaskNotFound):
		return err.Error()
	case isInputError(err):
		return err.Error()
	default:
		return "Internal server error"
	}
}

func isInputError(err error) bool {
	for _, target := range []error{
		ErrEmptyImage, ErrUnsupportedMimeType, ErrAnalysisRequired, ErrInvalidMealSlot,
		ErrInvalidDate, ErrInvalidDateRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
