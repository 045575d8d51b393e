package source

import (
	"context"
	"fmt"
	"os"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Source materializes a project tree under a destination directory and
// returns the effective root (which may be a subdirectory of dest, e.g. a
// repo subdir or the snippet folder).
//
// A Source never mutates an existing destination beyond initial population;
// re-invocation with a fresh dest produces an equivalent tree. On failure the
// partially written destination is removed before the error is surfaced.
type Source interface {
	Materialize(ctx context.Context, dest string) (root string, err error)
}

// GitAuth carries the access token used for authenticated clones. It is
// passed explicitly at construction time rather than read from the ambient
// environment so the git variant is testable without env mutation.
type GitAuth struct {
	// Token is embedded into the clone URL for matching hosts. Never logged.
	Token string
	// Hosts lists hostnames the token applies to. Defaults to github.com.
	Hosts []string
}

// FromInput builds the Source variant for a validated input description.
func FromInput(in types.Input, auth GitAuth) (Source, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	switch in.Kind {
	case types.InputRepo:
		ref := in.Ref
		if ref == "" {
			ref = "main"
		}
		return &GitSource{URL: in.URL, Ref: ref, Subdir: in.Subdir, Auth: auth}, nil
	case types.InputRemoteZip:
		return &RemoteZipSource{URL: in.URL}, nil
	case types.InputLocalZip:
		return &LocalZipSource{Path: in.LocalPath}, nil
	case types.InputSnippet:
		return &SnippetSource{Text: in.Text}, nil
	default:
		return nil, fmt.Errorf("%w: unknown input kind %q", types.ErrInvalidInput, in.Kind)
	}
}

// cleanupOnError removes dest when err is non-nil so no orphaned filesystem
// state survives a failed materialization.
func cleanupOnError(dest string, err error) {
	if err != nil {
		_ = os.RemoveAll(dest)
	}
}
