package nutrition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
)

var errProviderNotConfigured = errors.New("provider api key not configured")

// Image is a decoded photo and its MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

// VisionProvider sends one prompt plus one image to a multimodal model and
// returns the raw text of its reply.
type VisionProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, img Image) (string, error)
}

// NewProvider picks the backend named by cfg.AIProvider.
func NewProvider(cfg *config.Config) (VisionProvider, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "", "gemini":
		return NewGeminiProvider(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout), nil
	case "openai":
		return NewChatProvider(cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AITimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}

// =============================================================================
// Gemini
// =============================================================================

type GeminiProvider struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiProvider(apiURL, apiKey, model string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{apiURL: apiURL, apiKey: apiKey, model: model, client: newHTTPClient(timeout)}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, img Image) (string, error) {
	if p.apiKey == "" {
		return "", errProviderNotConfigured
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiBlob{MimeType: img.MimeType, Data: base64.StdEncoding.EncodeToString(img.Data)}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{Temperature: 0.4},
	}

	url := strings.TrimRight(p.apiURL, "/") + "/models/" + p.model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": p.apiKey}

	var out geminiResponse
	if err := postJSON(ctx, p.client, url, headers, body, &out); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", nil
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// =============================================================================
// OpenAI-compatible chat completions
// =============================================================================

type ChatProvider struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func NewChatProvider(apiURL, apiKey, model string, timeout time.Duration) *ChatProvider {
	return &ChatProvider{apiURL: apiURL, apiKey: apiKey, model: model, client: newHTTPClient(timeout)}
}

func (p *ChatProvider) Name() string { return "openai" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatProvider) Generate(ctx context.Context, prompt string, img Image) (string, error) {
	if p.apiKey == "" {
		return "", errProviderNotConfigured
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL, Detail: "auto"}},
			},
		}},
		Temperature: 0.4,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var out chatResponse
	if err := postJSON(ctx, p.client, p.apiURL, headers, body, &out); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}

	switch v := out.Choices[0].Message.Content.(type) {
	case string:
		return v, nil
	case []interface{}:
		var sb strings.Builder
		for _, item := range v {
			if part, ok := item.(map[string]interface{}); ok {
				if text, ok := part["text"].(string); ok {
					sb.WriteString(text)
				}
			}
		}
		return sb.String(), nil
	default:
		return "", nil
	}
}

// =============================================================================
// HTTP helpers
// =============================================================================

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends payload and decodes a 2xx reply into out. Non-2xx statuses
// and undecodable bodies are errors.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out interface{}) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
