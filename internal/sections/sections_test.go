package sections

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

func testRequest() Request {
	return Request{
		Bundle: "# === main.go ===\npackage main\n",
		Sections: []types.SectionSpec{
			{ID: "overview", Type: types.SectionMarkdown},
			{ID: "tagline", Type: types.SectionShortText, MaxChars: 10},
			{ID: "features", Type: types.SectionList},
		},
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Request) {},
		},
		{
			name:    "empty bundle",
			mutate:  func(r *Request) { r.Bundle = "" },
			wantErr: ErrEmptyBundle,
		},
		{
			name:    "no sections",
			mutate:  func(r *Request) { r.Sections = nil },
			wantErr: ErrNoSections,
		},
		{
			name: "section without id",
			mutate: func(r *Request) {
				r.Sections = []types.SectionSpec{{Type: types.SectionMarkdown}}
			},
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			err := ValidateRequest(req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComputeHash(t *testing.T) {
	a := ComputeHash(testRequest())
	b := ComputeHash(testRequest())
	assert.Equal(t, a, b, "identical requests hash the same")

	changed := testRequest()
	changed.Bundle += "x"
	assert.NotEqual(t, a, ComputeHash(changed))

	changed = testRequest()
	changed.Constraints.Tone = "formal"
	assert.NotEqual(t, a, ComputeHash(changed))

	changed = testRequest()
	changed.Sections[1].MaxChars = 99
	assert.NotEqual(t, a, ComputeHash(changed))
}

func TestCache(t *testing.T) {
	cache := NewCache(2)

	result := map[string]any{"overview": "text"}
	cache.Set("h1", result)

	got, ok := cache.Get("h1")
	require.True(t, ok)
	assert.Equal(t, result, got)

	// Mutating the returned map must not poison the cache.
	got["overview"] = "mutated"
	again, ok := cache.Get("h1")
	require.True(t, ok)
	assert.Equal(t, "text", again["overview"])

	// LRU eviction
	cache.Set("h2", result)
	cache.Set("h3", result)
	_, ok = cache.Get("h1")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Size())
}

func TestShapeResult(t *testing.T) {
	specs := testRequest().Sections

	t.Run("drops extra keys", func(t *testing.T) {
		out := shapeResult(map[string]any{
			"overview":     "ok",
			"tagline":      "short",
			"features":     []any{"a"},
			"hallucinated": "nope",
		}, specs)
		assert.NotContains(t, out, "hallucinated")
		assert.Len(t, out, 3)
	})

	t.Run("fills missing keys", func(t *testing.T) {
		out := shapeResult(map[string]any{}, specs)
		assert.Equal(t, "", out["overview"])
		assert.Equal(t, "", out["tagline"])
		assert.Equal(t, []any{}, out["features"])
	})

	t.Run("truncates short_text to cap", func(t *testing.T) {
		out := shapeResult(map[string]any{
			"tagline": "this is far too long for the cap",
		}, specs)
		assert.Equal(t, "this is fa", out["tagline"])
	})

	t.Run("markdown not truncated", func(t *testing.T) {
		long := strings.Repeat("m", 500)
		out := shapeResult(map[string]any{"overview": long}, specs)
		assert.Equal(t, long, out["overview"])
	})
}

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantOK  bool
		wantKey string
	}{
		{
			name:    "clean object",
			content: `{"overview": "hi"}`,
			wantOK:  true,
			wantKey: "overview",
		},
		{
			name:    "object wrapped in prose",
			content: "Here is the JSON you asked for:\n{\"overview\": \"hi\"}\nHope that helps!",
			wantOK:  true,
			wantKey: "overview",
		},
		{
			name:    "code fence",
			content: "```json\n{\"overview\": \"hi\"}\n```",
			wantOK:  true,
			wantKey: "overview",
		},
		{
			name:    "braces inside strings",
			content: `prefix {"overview": "uses { and } freely"} suffix`,
			wantOK:  true,
			wantKey: "overview",
		},
		{
			name:    "no object at all",
			content: "I cannot help with that.",
			wantOK:  false,
		},
		{
			name:    "unbalanced",
			content: `{"overview": "hi"`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := parseJSONObject(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Contains(t, out, tt.wantKey)
			}
		})
	}
}

func TestStaticProviderDeterministic(t *testing.T) {
	gen, err := NewStaticProvider(nil)
	require.NoError(t, err)
	defer func() { _ = gen.Close() }()

	req := testRequest()
	first, err := gen.GenerateSections(context.Background(), req)
	require.NoError(t, err)
	second, err := gen.GenerateSections(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Shape obligations hold for the stub too.
	assert.Contains(t, first, "overview")
	assert.Equal(t, []any{}, first["features"])
	tagline, ok := first["tagline"].(string)
	require.True(t, ok)
	assert.LessOrEqual(t, len(tagline), 10)
}

func TestStaticProviderValidates(t *testing.T) {
	gen, err := NewStaticProvider(nil)
	require.NoError(t, err)

	_, err = gen.GenerateSections(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyBundle)
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvGroqAPIKey, "")
	assert.Equal(t, ProviderStatic, DetectProvider())

	t.Setenv(EnvGroqAPIKey, "gsk_test")
	assert.Equal(t, ProviderGroq, DetectProvider())

	t.Setenv(EnvProvider, "static")
	assert.Equal(t, ProviderStatic, DetectProvider())
}
