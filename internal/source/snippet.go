package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

const (
	snippetDir  = "snippet"
	snippetFile = "snippet.txt"
)

// SnippetSource writes pasted text to dest/snippet/snippet.txt so a snippet
// goes through the same filter/index/summarize flow as any other source.
type SnippetSource struct {
	Text string
}

func (s *SnippetSource) Materialize(ctx context.Context, dest string) (root string, err error) {
	defer func() { cleanupOnError(dest, err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	root = filepath.Join(dest, snippetDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("%w: create snippet dir: %v", types.ErrMaterialization, err)
	}
	if err := os.WriteFile(filepath.Join(root, snippetFile), []byte(s.Text), 0o644); err != nil {
		return "", fmt.Errorf("%w: write snippet: %v", types.ErrMaterialization, err)
	}
	return root, nil
}
