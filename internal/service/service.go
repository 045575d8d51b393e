package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/docsmithlabs/docsmith/internal/bundle"
	"github.com/docsmithlabs/docsmith/internal/indexer"
	"github.com/docsmithlabs/docsmith/internal/sections"
	"github.com/docsmithlabs/docsmith/internal/session"
	"github.com/docsmithlabs/docsmith/internal/source"
	"github.com/docsmithlabs/docsmith/pkg/types"
)

// DefaultInclude is applied when a prepare request carries no include
// patterns: common source and doc files.
var DefaultInclude = []string{
	"**/*.py", "**/*.ts", "**/*.js", "**/*.go", "**/*.java", "**/*.cs",
	"**/*.rb", "**/*.php", "**/*.rs", "**/*.cpp", "**/*.c", "**/*.md",
	"**/*.txt",
}

// DefaultExclude is always a sensible floor: VCS metadata, dependency
// trees, and build output.
var DefaultExclude = []string{
	"**/.git/**", "**/node_modules/**", "**/.venv/**", "**/dist/**",
	"**/build/**", "**/.cache/**",
}

// PrepareRequest materializes a source and indexes it into a new session.
type PrepareRequest struct {
	Input    types.Input
	Include  []string
	Exclude  []string
	MaxFiles int
	MaxBytes int64
}

// PrepareResult reports the new session and its index.
type PrepareResult struct {
	SessionID  string            `json:"session_id"`
	Files      []types.FileEntry `json:"files"`
	FileCount  int               `json:"file_count"`
	TotalBytes int64             `json:"total_bytes"`
}

// SummarizeRequest generates documentation sections over files selected
// from a prepared session.
type SummarizeRequest struct {
	SessionID   string
	Selected    []string
	Sections    []types.SectionSpec
	Constraints types.Constraints
	// Cleanup tears the session down after a successful generation.
	Cleanup bool
}

// SummarizeResult carries the generated sections and provenance.
type SummarizeResult struct {
	Sections map[string]any `json:"sections"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
}

// Service wires the pipeline: materialize, index, persist, bundle, generate.
type Service struct {
	sessions *session.Manager
	gen      sections.Generator
	gitAuth  source.GitAuth
	logger   *zap.Logger
}

// New creates a Service. The logger may be nil.
func New(sessions *session.Manager, gen sections.Generator, gitAuth source.GitAuth, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions: sessions,
		gen:      gen,
		gitAuth:  gitAuth,
		logger:   logger,
	}
}

// Prepare materializes the requested input under a fresh session directory,
// indexes it, and persists the session record. On any failure the partially
// written session directory is removed so no orphan sessions accumulate.
func (s *Service) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
	if err := req.Input.Validate(); err != nil {
		return nil, err
	}

	src, err := source.FromInput(req.Input, s.gitAuth)
	if err != nil {
		return nil, err
	}

	id := session.NewID()
	dest := s.sessions.Dir(id)

	root, err := src.Materialize(ctx, dest)
	if err != nil {
		return nil, err
	}

	opts := indexer.Options{
		Patterns: types.PatternSet{
			Include: req.Include,
			Exclude: req.Exclude,
		},
		MaxFiles: req.MaxFiles,
		MaxBytes: req.MaxBytes,
	}
	if len(opts.Patterns.Include) == 0 {
		opts.Patterns.Include = DefaultInclude
	}
	if len(opts.Patterns.Exclude) == 0 {
		opts.Patterns.Exclude = DefaultExclude
	}

	entries, err := indexer.Index(ctx, root, opts)
	if err != nil {
		s.discard(id, dest)
		return nil, err
	}

	if err := s.sessions.Register(ctx, id, root); err != nil {
		s.discard(id, dest)
		return nil, fmt.Errorf("register session: %w", err)
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	s.logger.Info("prepared source",
		zap.String("session_id", id),
		zap.String("kind", string(req.Input.Kind)),
		zap.Int("files", len(entries)),
		zap.Int64("bytes", total))

	return &PrepareResult{
		SessionID:  id,
		Files:      entries,
		FileCount:  len(entries),
		TotalBytes: total,
	}, nil
}

// Summarize resolves a prepared session, concatenates the selected files,
// and asks the configured generator for the requested sections.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", types.ErrInvalidInput)
	}
	if len(req.Selected) == 0 {
		return nil, fmt.Errorf("%w: selected_paths is empty", types.ErrInvalidInput)
	}

	root, err := s.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	text, err := bundle.Read(root, req.Selected)
	if err != nil {
		return nil, err
	}

	out, err := s.gen.GenerateSections(ctx, sections.Request{
		Bundle:      text,
		Sections:    req.Sections,
		Constraints: req.Constraints,
	})
	if err != nil {
		return nil, err
	}

	if req.Cleanup {
		if derr := s.sessions.Destroy(ctx, req.SessionID); derr != nil {
			s.logger.Warn("post-summarize cleanup failed",
				zap.String("session_id", req.SessionID),
				zap.Error(derr))
		}
	}

	return &SummarizeResult{
		Sections: out,
		Provider: s.gen.Provider(),
		Model:    s.gen.Model(),
	}, nil
}

// Resolve exposes session lookup for read-only inspection surfaces.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	return s.sessions.Resolve(ctx, id)
}

// Cleanup removes a session record and its backing directory. It is
// idempotent for sessions that no longer exist.
func (s *Service) Cleanup(ctx context.Context, id string) error {
	return s.sessions.Destroy(ctx, id)
}

// Close releases the generator and the session store.
func (s *Service) Close() error {
	gerr := s.gen.Close()
	serr := s.sessions.Close()
	if gerr != nil {
		return gerr
	}
	return serr
}

// discard removes a half-built session directory after a pipeline failure.
func (s *Service) discard(id, dest string) {
	if err := os.RemoveAll(dest); err != nil {
		s.logger.Warn("failed to remove session dir",
			zap.String("session_id", id),
			zap.Error(err))
	}
}
