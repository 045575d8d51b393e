package sections

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider   = "DOCSMITH_SECTIONS_PROVIDER"
	EnvGroqAPIKey = "GROQ_API_KEY"
)

// Config holds section generator configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Models    []string
	CacheSize int
}

// NewFromEnv creates a generator based on environment variables
// Priority:
// 1. DOCSMITH_SECTIONS_PROVIDER (groq, static)
// 2. GROQ_API_KEY presence
// 3. Default to static when no API key is found
func NewFromEnv() (Generator, error) {
	provider := os.Getenv(EnvProvider)
	groqKey := os.Getenv(EnvGroqAPIKey)

	cache := NewCache(1000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderGroq:
			return NewGroqProvider(GroqConfig{APIKey: groqKey}, cache)
		case ProviderStatic:
			return NewStaticProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProviderEnabled, provider)
		}
	}

	// Auto-detect based on available API key
	if groqKey != "" {
		return NewGroqProvider(GroqConfig{APIKey: groqKey}, cache)
	}

	// Fallback to the offline provider
	return NewStaticProvider(cache)
}

// New creates a generator with explicit configuration
func New(cfg Config) (Generator, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderGroq:
		return NewGroqProvider(GroqConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Models:  cfg.Models,
		}, cache)
	case ProviderStatic:
		return NewStaticProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProviderEnabled, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvGroqAPIKey) != "" {
		return ProviderGroq
	}

	return ProviderStatic
}
