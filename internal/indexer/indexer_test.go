package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// writeTree creates files under root from a path -> content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func paths(entries []types.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestIndexDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"zeta.go":      "package zeta",
		"alpha/one.go": "package alpha",
		"alpha/two.go": "package alpha",
		"beta.go":      "package beta",
	})

	for i := 0; i < 5; i++ {
		entries, err := Index(context.Background(), root, Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha/one.go", "alpha/two.go", "beta.go", "zeta.go"}, paths(entries))
	}
}

func TestIndexPatternFiltering(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":              "package main",
		"docs/guide.md":        "# guide",
		"vendor/dep/dep.go":    "package dep",
		"assets/logo.bin":      "\x00\x01",
		"internal/impl/impl.go": "package impl",
	})

	entries, err := Index(context.Background(), root, Options{
		Patterns: types.PatternSet{
			Include: []string{"**/*.go"},
			Exclude: []string{"vendor/**"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"internal/impl/impl.go", "main.go"}, paths(entries))
}

func TestIndexEmptyIncludeAdmitsAll(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "a",
		"b.bin": "b",
	})

	entries, err := Index(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIndexBadPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a"})

	_, err := Index(context.Background(), root, Options{
		Patterns: types.PatternSet{Include: []string{"["}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrBadPattern))
}

func TestIndexMaxFilesCap(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
		"d.txt": "d",
	})

	entries, err := Index(context.Background(), root, Options{MaxFiles: 2})
	require.NoError(t, err)
	// The cap keeps the first files in sorted order.
	assert.Equal(t, []string{"a.txt", "b.txt"}, paths(entries))
}

func TestIndexMaxBytesStopsAtFirstBreach(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": strings.Repeat("x", 6),
		"b.txt": strings.Repeat("x", 4),
		"c.txt": "x",
	})

	// 6 fits under the cap of 10; adding 4 would reach it exactly, which
	// is allowed; a cap of 9 stops before b.txt and everything after it.
	entries, err := Index(context.Background(), root, Options{MaxBytes: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, paths(entries))

	entries, err = Index(context.Background(), root, Options{MaxBytes: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, paths(entries))
}

func TestIndexPreviews(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("abcdefghij", 50)
	writeTree(t, root, map[string]string{
		"short.txt": "hello",
		"long.txt":  long,
	})

	entries, err := Index(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byPath := map[string]types.FileEntry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}

	assert.Equal(t, "hello", byPath["short.txt"].Preview)
	assert.Equal(t, PreviewChars, len([]rune(byPath["long.txt"].Preview)))
	assert.Equal(t, long[:PreviewChars], byPath["long.txt"].Preview)
}

func TestIndexPreviewDropsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o644))

	entries, err := Index(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok!", entries[0].Preview)
}

func TestIndexEmptyRoot(t *testing.T) {
	entries, err := Index(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestIndexMissingRoot(t *testing.T) {
	_, err := Index(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestIndexSizes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"f.txt": "12345"})

	entries, err := Index(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].Size)
}
