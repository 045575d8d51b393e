package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

const defaultTokenHost = "github.com"

// GitSource clones exactly one ref of a repository, shallow (depth 1), into
// the destination. When Subdir is set, that nested path becomes the
// effective root after cloning.
type GitSource struct {
	URL    string
	Ref    string
	Subdir string
	Auth   GitAuth
}

// Materialize performs the clone into dest/repo.
func (g *GitSource) Materialize(ctx context.Context, dest string) (root string, err error) {
	defer func() { cleanupOnError(dest, err) }()

	repoDir := filepath.Join(dest, "repo")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("%w: create destination: %v", types.ErrMaterialization, err)
	}

	auth := g.authMethod()

	// The ref may name a branch or a tag; try the branch ref first and fall
	// back to the tag ref. Bare commit SHAs cannot be fetched shallowly.
	refNames := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(g.Ref),
		plumbing.NewTagReferenceName(g.Ref),
	}

	var lastErr error
	for _, refName := range refNames {
		_, lastErr = git.PlainCloneContext(ctx, repoDir, false, &git.CloneOptions{
			URL:           g.URL,
			Auth:          auth,
			ReferenceName: refName,
			SingleBranch:  true,
			Depth:         1,
			Tags:          git.NoTags,
		})
		if lastErr == nil {
			break
		}
		// A failed attempt can leave a partial checkout behind; clear it
		// before retrying with the tag ref.
		_ = os.RemoveAll(repoDir)
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: clone %s@%s: %v", types.ErrMaterialization, g.URL, g.Ref, lastErr)
	}

	root = repoDir
	if g.Subdir != "" {
		root = filepath.Join(repoDir, filepath.FromSlash(g.Subdir))
		info, statErr := os.Stat(root)
		if statErr != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: subdir %q not found in repository", types.ErrMaterialization, g.Subdir)
		}
	}

	return root, nil
}

// authMethod returns basic-auth credentials when a token is configured and
// the clone URL targets a token-supporting host. The authenticated URL is
// never constructed as a string, so it cannot leak into logs.
func (g *GitSource) authMethod() transport.AuthMethod {
	if g.Auth.Token == "" {
		return nil
	}

	u, err := url.Parse(g.URL)
	if err != nil {
		return nil
	}

	hosts := g.Auth.Hosts
	if len(hosts) == 0 {
		hosts = []string{defaultTokenHost}
	}
	for _, h := range hosts {
		if u.Host == h {
			return &githttp.BasicAuth{
				Username: g.Auth.Token,
				Password: "x-oauth-basic",
			}
		}
	}
	return nil
}
