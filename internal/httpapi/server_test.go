package httpapi

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docsmithlabs/docsmith/internal/sections"
	"github.com/docsmithlabs/docsmith/internal/service"
	"github.com/docsmithlabs/docsmith/internal/session"
	"github.com/docsmithlabs/docsmith/internal/source"
)

const testToken = "secret-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dataRoot := t.TempDir()
	store, err := session.NewManifestStore(dataRoot, nil)
	require.NoError(t, err)
	gen, err := sections.NewStaticProvider(nil)
	require.NoError(t, err)

	svc := service.New(session.NewManager(store, dataRoot), gen, source.GitAuth{}, zap.NewNop())
	t.Cleanup(func() { _ = svc.Close() })

	srv, err := NewServer(svc, zap.NewNop(), &Config{
		Host:      "localhost",
		Port:      0,
		AuthToken: testToken,
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func prepareSnippet(t *testing.T, srv *Server, text string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/prepare", testToken, map[string]any{
		"input": map[string]any{"kind": "snippet", "text": text},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.PrepareResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.SessionID)
	return result.SessionID
}

func TestHealthzOpen(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "wrong token", token: "wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/prepare", tt.token, map[string]any{
				"input": map[string]any{"kind": "snippet", "text": "x"},
			})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestPrepareAndSummarizeFlow(t *testing.T) {
	srv := newTestServer(t)
	id := prepareSnippet(t, srv, "print('hi')\n")

	rec := doJSON(t, srv, http.MethodPost, "/summarize", testToken, map[string]any{
		"session_id":     id,
		"selected_paths": []string{"snippet.txt"},
		"sections": []map[string]any{
			{"id": "overview", "type": "markdown"},
			{"id": "tagline", "type": "short_text", "max_chars": 40},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.SummarizeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "static", result.Provider)
	assert.Contains(t, result.Sections, "overview")
	assert.Contains(t, result.Sections, "tagline")
}

func TestPrepareInvalidInput(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/prepare", testToken, map[string]any{
		"input": map[string]any{"kind": "repo"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrepareBadPattern(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/prepare", testToken, map[string]any{
		"input":   map[string]any{"kind": "snippet", "text": "x"},
		"include": []string{"["},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/summarize", testToken, map[string]any{
		"session_id":     "src-nope",
		"selected_paths": []string{"snippet.txt"},
		"sections":       []map[string]any{{"id": "overview"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummarizeMissingSelection(t *testing.T) {
	srv := newTestServer(t)
	id := prepareSnippet(t, srv, "x")

	rec := doJSON(t, srv, http.MethodPost, "/summarize", testToken, map[string]any{
		"session_id":     id,
		"selected_paths": []string{"absent.txt"},
		"sections":       []map[string]any{{"id": "overview"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := prepareSnippet(t, srv, "x")

	rec := doJSON(t, srv, http.MethodGet, "/sessions/"+id, testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, id, sess.SessionID)
	assert.NotEmpty(t, sess.Root)

	rec = doJSON(t, srv, http.MethodDelete, "/sessions/"+id, testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/sessions/"+id, testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrepareMultipartUpload(t *testing.T) {
	srv := newTestServer(t)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	w, err := zw.Create("pkg/lib.go")
	require.NoError(t, err)
	_, err = w.Write([]byte("package lib"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.zip")
	require.NoError(t, err)
	_, err = fw.Write(archive.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("include", "**/*.go"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/prepare", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", testToken))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.PrepareResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Files, 1)
	assert.Equal(t, "pkg/lib.go", result.Files[0].Path)
}

func TestPrepareMultipartMissingFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("include", "**/*.go"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/prepare", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoAuthConfiguredSkipsCheck(t *testing.T) {
	dataRoot := t.TempDir()
	store, err := session.NewManifestStore(dataRoot, nil)
	require.NoError(t, err)
	gen, err := sections.NewStaticProvider(nil)
	require.NoError(t, err)
	svc := service.New(session.NewManager(store, dataRoot), gen, source.GitAuth{}, zap.NewNop())
	t.Cleanup(func() { _ = svc.Close() })

	srv, err := NewServer(svc, zap.NewNop(), &Config{Host: "localhost", Port: 0})
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/prepare", "", map[string]any{
		"input": map[string]any{"kind": "snippet", "text": strings.Repeat("x", 3)},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
