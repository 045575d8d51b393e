package sections

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatResponse builds an OpenAI-style chat completion body whose message
// content is the given string.
func chatResponse(t *testing.T, content string) []byte {
	t.Helper()
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func newTestProvider(t *testing.T, baseURL string, models []string) *GroqProvider {
	t.Helper()
	p, err := NewGroqProvider(GroqConfig{
		APIKey:     "gsk_test",
		BaseURL:    baseURL,
		Models:     models,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}, nil)
	require.NoError(t, err)
	return p
}

func TestGroqGenerateSections(t *testing.T) {
	var gotAuth, gotModel string
	var gotFormat map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		gotFormat, _ = req["response_format"].(map[string]any)

		_, _ = w.Write(chatResponse(t, `{"overview": "An app.", "tagline": "short", "features": ["x"]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, nil)
	out, err := p.GenerateSections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "Bearer gsk_test", gotAuth)
	assert.Equal(t, DefaultGroqModels[0], gotModel)
	assert.Equal(t, map[string]any{"type": "json_object"}, gotFormat)

	assert.Equal(t, "An app.", out["overview"])
	assert.Equal(t, "short", out["tagline"])
	assert.Equal(t, []any{"x"}, out["features"])
	assert.Equal(t, DefaultGroqModels[0], p.Model())
}

func TestGroqConcurrentGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatResponse(t, `{"overview": "ok", "tagline": "t", "features": []}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, nil)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := testRequest()
			req.Bundle = fmt.Sprintf("%s %d", req.Bundle, i)
			_, errs[i] = p.GenerateSections(context.Background(), req)
			_ = p.Model()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, DefaultGroqModels[0], p.Model())
}

func TestGroqShapeEnforcement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Model returns an extra key, misses one, and overruns the cap.
		_, _ = w.Write(chatResponse(t, `{"overview": "ok", "tagline": "way past the ten char cap", "bogus": 1}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, nil)
	out, err := p.GenerateSections(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotContains(t, out, "bogus")
	assert.Equal(t, "way past t", out["tagline"])
	assert.Equal(t, []any{}, out["features"])
}

func TestGroqModelFallback(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		model, _ := req["model"].(string)
		calls = append(calls, model)

		if model == "model-a" {
			// Decommissioned model: permanent failure, no retries.
			http.Error(w, `{"error": "model not found"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write(chatResponse(t, `{"overview": "fallback worked"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, []string{"model-a", "model-b"})
	out, err := p.GenerateSections(context.Background(), Request{
		Bundle:   "x",
		Sections: testRequest().Sections[:1],
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"model-a", "model-b"}, calls, "bad request must not be retried, only passed to the next model")
	assert.Equal(t, "fallback worked", out["overview"])
	assert.Equal(t, "model-b", p.Model())
}

func TestGroqRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(chatResponse(t, `{"overview": "recovered"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, []string{"model-a"})
	out, err := p.GenerateSections(context.Background(), Request{
		Bundle:   "x",
		Sections: testRequest().Sections[:1],
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "recovered", out["overview"])
}

func TestGroqAllModelsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, []string{"model-a", "model-b"})
	_, err := p.GenerateSections(context.Background(), Request{
		Bundle:   "x",
		Sections: testRequest().Sections[:1],
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestGroqJSONRescue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatResponse(t, "Sure! Here it is:\n```json\n{\"overview\": \"rescued\"}\n```"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, []string{"model-a"})
	out, err := p.GenerateSections(context.Background(), Request{
		Bundle:   "x",
		Sections: testRequest().Sections[:1],
	})
	require.NoError(t, err)
	assert.Equal(t, "rescued", out["overview"])
}

func TestGroqCachesResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(chatResponse(t, `{"overview": "cached"}`))
	}))
	defer srv.Close()

	p, err := NewGroqProvider(GroqConfig{
		APIKey:     "gsk_test",
		BaseURL:    srv.URL,
		Models:     []string{"model-a"},
		HTTPClient: srv.Client(),
	}, NewCache(10))
	require.NoError(t, err)

	req := Request{Bundle: "x", Sections: testRequest().Sections[:1]}
	_, err = p.GenerateSections(context.Background(), req)
	require.NoError(t, err)
	_, err = p.GenerateSections(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second call must be served from cache")
}

func TestGroqRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvGroqAPIKey, "")
	_, err := NewGroqProvider(GroqConfig{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}
