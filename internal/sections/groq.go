package sections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Provider configuration
const (
	ProviderGroq   = "groq"
	ProviderStatic = "static"

	// DefaultGroqBaseURL is the OpenAI-compatible Groq endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// Generation defaults
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3

	// Style defaults applied when a request leaves constraints unset
	DefaultAudience     = "general technical reader"
	DefaultTone         = "neutral"
	DefaultReadingLevel = "grade_8"
)

// DefaultGroqModels is the ordered fallback chain. Each model is tried with
// retries before moving to the next.
var DefaultGroqModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
}

// GroqConfig configures a GroqProvider.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
	Logger  *zap.Logger

	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// GroqProvider implements Generator using the Groq chat completions API.
type GroqProvider struct {
	apiKey     string
	baseURL    string
	models     []string
	httpClient *http.Client
	cache      *Cache
	logger     *zap.Logger

	// lastModel records which fallback model served the most recent call.
	// Guarded by mu: one provider instance serves concurrent requests.
	mu        sync.Mutex
	lastModel string
}

// NewGroqProvider creates a Groq-backed section generator.
func NewGroqProvider(cfg GroqConfig, cache *Cache) (*GroqProvider, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvGroqAPIKey)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvGroqAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultGroqModels
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &GroqProvider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		models:     cfg.Models,
		httpClient: cfg.HTTPClient,
		cache:      cache,
		logger:     cfg.Logger,
		lastModel:  cfg.Models[0],
	}, nil
}

func (g *GroqProvider) GenerateSections(ctx context.Context, req Request) (map[string]any, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	// Check cache
	hash := ComputeHash(req)
	if g.cache != nil {
		if result, ok := g.cache.Get(hash); ok {
			return result, nil
		}
	}

	// Try each model in order, with retries per model. The last error is
	// carried forward so the caller sees why the final model failed.
	config := DefaultRetryConfig()
	var lastErr error
	for _, model := range g.models {
		parsed, err := retryWithBackoff(ctx, config, func() (map[string]any, error) {
			return g.callAPI(ctx, req, model)
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("section model failed, trying fallback",
				zap.String("model", model),
				zap.Error(err))
			continue
		}

		g.mu.Lock()
		g.lastModel = model
		g.mu.Unlock()
		result := shapeResult(parsed, req.Sections)
		if g.cache != nil {
			g.cache.Set(hash, result)
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: all models exhausted: %v", ErrProviderFailed, lastErr)
}

func (g *GroqProvider) callAPI(ctx context.Context, req Request, model string) (map[string]any, error) {
	maxTokens := req.Constraints.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	// OpenAI-compatible chat format with JSON mode
	reqBody := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(req.Constraints)},
			{"role": "user", "content": userPrompt(req)},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     DefaultTemperature,
		"max_tokens":      maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
		// Rate limits and server errors are worth retrying; anything else
		// (bad request, auth, unknown model) will fail the same way again.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, permanent(apiErr)
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	g.logger.Debug("section generation completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", apiResp.Usage.PromptTokens),
		zap.Int("completion_tokens", apiResp.Usage.CompletionTokens))

	parsed, ok := parseJSONObject(apiResp.Choices[0].Message.Content)
	if !ok {
		return nil, fmt.Errorf("model returned unparseable content")
	}
	return parsed, nil
}

func (g *GroqProvider) Provider() string {
	return ProviderGroq
}

func (g *GroqProvider) Model() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastModel
}

func (g *GroqProvider) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// systemPrompt fixes the output contract: a single JSON object, nothing else.
func systemPrompt(c types.Constraints) string {
	audience := c.Audience
	if audience == "" {
		audience = DefaultAudience
	}
	tone := c.Tone
	if tone == "" {
		tone = DefaultTone
	}
	level := c.ReadingLevel
	if level == "" {
		level = DefaultReadingLevel
	}

	var b strings.Builder
	b.WriteString("You are a technical writer producing documentation for a source code bundle. ")
	b.WriteString("Respond with a single JSON object and nothing else. ")
	b.WriteString("The object must contain exactly the requested keys, no extras.\n")
	fmt.Fprintf(&b, "Audience: %s. Tone: %s. Reading level: %s.", audience, tone, level)
	return b.String()
}

// userPrompt lays out the requested section schema followed by the bundle.
func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Produce the following sections as JSON keys:\n")
	for _, s := range req.Sections {
		label := s.Label
		if label == "" {
			label = s.ID
		}
		typ := s.Type
		if typ == "" {
			typ = types.SectionMarkdown
		}
		switch typ {
		case types.SectionList:
			item := s.ItemType
			if item == "" {
				item = "string"
			}
			fmt.Fprintf(&b, "- %q: %s, a JSON array of %s items", s.ID, label, item)
		case types.SectionShortText:
			fmt.Fprintf(&b, "- %q: %s, a short string", s.ID, label)
			if s.MaxChars > 0 {
				fmt.Fprintf(&b, " of at most %d characters", s.MaxChars)
			}
		default:
			fmt.Fprintf(&b, "- %q: %s, markdown prose", s.ID, label)
		}
		if s.PromptHint != "" {
			fmt.Fprintf(&b, " (%s)", s.PromptHint)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSource bundle:\n\n")
	b.WriteString(req.Bundle)
	return b.String()
}

// parseJSONObject decodes the model output. Models in JSON mode still
// occasionally wrap the object in prose or code fences, so on a failed
// top-level decode the first balanced {...} block is extracted and retried.
func parseJSONObject(content string) (map[string]any, bool) {
	content = strings.TrimSpace(content)

	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, true
	}

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				if err := json.Unmarshal([]byte(content[start:i+1]), &out); err == nil {
					return out, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}
