package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Analyzer turns a food photo into a structured FoodAnalysis with a single
// provider call. It never retries and never falls back.
type Analyzer struct {
	provider VisionProvider
}

func NewAnalyzer(provider VisionProvider) *Analyzer {
	return &Analyzer{provider: provider}
}

func (a *Analyzer) ProviderName() string {
	return a.provider.Name()
}

func (a *Analyzer) Analyze(ctx context.Context, img Image) (*FoodAnalysis, error) {
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}
	mime, err := NormalizeMimeType(img.MimeType)
	if err != nil {
		return nil, err
	}

	text, err := a.provider.Generate(ctx, analysisPrompt, Image{Data: img.Data, MimeType: mime})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	return ParseAnalysis(text)
}

// NormalizeMimeType lowercases the type and maps image/jpg to image/jpeg.
func NormalizeMimeType(mime string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" {
		m = "image/jpeg"
	}
	if !supportedMimeTypes[m] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMimeType, mime)
	}
	return m, nil
}

// StripCodeFence removes a leading ```json or ``` line and a trailing ```.
// Text without a fence is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && isFenceLabel(s[:nl]) {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceLabel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "json")
}

type analysisEnvelope struct {
	FoodAnalysis *FoodAnalysis `json:"foodAnalysis"`
}

// ParseAnalysis decodes the model reply. Empty text, malformed JSON and a
// missing "foodAnalysis" object are all ErrInvalidModelResponse.
func ParseAnalysis(text string) (*FoodAnalysis, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInvalidModelResponse)
	}

	var env analysisEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelResponse, err)
	}
	if env.FoodAnalysis == nil {
		return nil, fmt.Errorf("%w: missing foodAnalysis object", ErrInvalidModelResponse)
	}
	return env.FoodAnalysis, nil
}
