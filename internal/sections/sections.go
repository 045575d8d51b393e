package sections

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Common errors
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyBundle       = errors.New("bundle cannot be empty")
	ErrNoSections        = errors.New("no sections requested")
	ErrProviderFailed    = errors.New("section provider failed")
	ErrNoProviderEnabled = errors.New("no section provider configured")
)

// Request asks a provider to produce documentation sections for a bundle.
type Request struct {
	// Bundle is the concatenated, per-file-delimited source text.
	Bundle string
	// Sections define the shape of the output object; each spec's ID
	// becomes a key of the result.
	Sections []types.SectionSpec
	// Constraints carries style hints (audience, tone, reading level) and
	// the completion token cap.
	Constraints types.Constraints
}

// Generator produces a JSON object whose keys exactly match the requested
// section ids. Retry and backoff live behind this interface; callers see a
// single synchronous result.
type Generator interface {
	GenerateSections(ctx context.Context, req Request) (map[string]any, error)
	Provider() string
	Model() string
	Close() error
}

// ValidateRequest validates a section generation request.
func ValidateRequest(req Request) error {
	if req.Bundle == "" {
		return ErrEmptyBundle
	}
	if len(req.Sections) == 0 {
		return ErrNoSections
	}
	for i, s := range req.Sections {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: section %d: %v", ErrInvalidRequest, i, err)
		}
	}
	return nil
}

// Cache provides in-memory LRU caching of generated sections by request
// hash, so repeated summarize calls over an identical bundle and schema do
// not pay for a second model round trip.
type Cache struct {
	cache *lru.Cache[string, []byte]
}

// NewCache creates a section result cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 256
	}
	cache, _ := lru.New[string, []byte](maxLen)
	return &Cache{cache: cache}
}

// Get retrieves a cached result. The stored value is kept as serialized
// JSON and decoded per call so callers can never mutate the cached copy.
func (c *Cache) Get(hash string) (map[string]any, bool) {
	data, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Set stores a result with automatic LRU eviction.
func (c *Cache) Set(hash string, result map[string]any) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.cache.Add(hash, data)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// ComputeHash derives the cache key from everything that shapes the output.
func ComputeHash(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Bundle))
	if schema, err := json.Marshal(req.Sections); err == nil {
		h.Write(schema)
	}
	if cons, err := json.Marshal(req.Constraints); err == nil {
		h.Write(cons)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// shapeResult filters a parsed model response down to the requested keys,
// fills in any missing key with a type-appropriate zero value, and enforces
// short_text character caps. The output shape is stable regardless of what
// the model returned.
func shapeResult(parsed map[string]any, specs []types.SectionSpec) map[string]any {
	requested := make(map[string]types.SectionSpec, len(specs))
	for _, s := range specs {
		requested[s.ID] = s
	}

	clean := make(map[string]any, len(specs))
	for k, v := range parsed {
		if _, ok := requested[k]; ok {
			clean[k] = v
		}
	}

	for _, s := range specs {
		if _, ok := clean[s.ID]; !ok {
			if s.Type == types.SectionList {
				clean[s.ID] = []any{}
			} else {
				clean[s.ID] = ""
			}
		}
		if s.Type == types.SectionShortText && s.MaxChars > 0 {
			if str, ok := clean[s.ID].(string); ok && len(str) > s.MaxChars {
				clean[s.ID] = str[:s.MaxChars]
			}
		}
	}
	return clean
}
