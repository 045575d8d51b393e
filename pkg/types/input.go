package types

import (
	"fmt"
	"strings"
)

// InputKind identifies which variant of Input is populated.
type InputKind string

const (
	// InputRepo clones a git repository at a specific ref. An optional
	// Subdir narrows the effective root to a nested directory.
	InputRepo InputKind = "repo"
	// InputRemoteZip downloads a zip archive over HTTPS and extracts it.
	InputRemoteZip InputKind = "remote_zip"
	// InputLocalZip extracts a zip archive already on local disk.
	InputLocalZip InputKind = "local_zip"
	// InputSnippet writes pasted text to a single file so it can be indexed
	// like any other source tree.
	InputSnippet InputKind = "snippet"
)

// Input describes one project source. Exactly one variant's fields are
// meaningful, selected by Kind. Validated once at the boundary; downstream
// components receive an Input that is already well formed.
type Input struct {
	Kind InputKind `json:"kind"`

	// Repo fields
	URL    string `json:"url,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Subdir string `json:"subdir,omitempty"`

	// Local zip field
	LocalPath string `json:"local_path,omitempty"`

	// Snippet field
	Text string `json:"text,omitempty"`
}

// Validate checks that the fields required by Kind are present.
func (in Input) Validate() error {
	switch in.Kind {
	case InputRepo:
		if in.URL == "" {
			return fmt.Errorf("%w: url is required for repo input", ErrInvalidInput)
		}
	case InputRemoteZip:
		if in.URL == "" {
			return fmt.Errorf("%w: url is required for remote_zip input", ErrInvalidInput)
		}
		if !strings.HasPrefix(in.URL, "https://") && !strings.HasPrefix(in.URL, "http://") {
			return fmt.Errorf("%w: remote_zip url must be http(s)", ErrInvalidInput)
		}
	case InputLocalZip:
		if in.LocalPath == "" {
			return fmt.Errorf("%w: local_path is required for local_zip input", ErrInvalidInput)
		}
	case InputSnippet:
		if in.Text == "" {
			return fmt.Errorf("%w: text is required for snippet input", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown input kind %q", ErrInvalidInput, in.Kind)
	}
	return nil
}

// PatternSet holds include and exclude glob lists. Each list is matched with
// logical OR; exclude takes precedence over include; an empty include list
// means "match everything".
type PatternSet struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// FileEntry is one discovered file, relative to the session root.
type FileEntry struct {
	// Path uses forward-slash separators regardless of host OS and is
	// unique within a listing.
	Path string `json:"path"`
	// Size is the byte length observed at index time.
	Size int64 `json:"size"`
	// Preview is a best-effort leading text fragment; empty when the file
	// could not be decoded as text.
	Preview string `json:"preview"`
}
