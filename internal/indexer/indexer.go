package indexer

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/docsmithlabs/docsmith/internal/globber"
	"github.com/docsmithlabs/docsmith/pkg/types"
)

const (
	// DefaultMaxFiles caps the number of entries in a listing.
	DefaultMaxFiles = 500
	// DefaultMaxBytes caps the cumulative size across a listing.
	DefaultMaxBytes = int64(20_000_000)
	// PreviewChars is the bounded preview length in characters.
	PreviewChars = 200

	// previewReadBytes is how much is read from disk per preview; generous
	// enough to yield PreviewChars characters even for multi-byte text.
	previewReadBytes = 4 * PreviewChars
)

// Options configures one indexing pass.
type Options struct {
	Patterns types.PatternSet
	MaxFiles int   // <=0 means DefaultMaxFiles
	MaxBytes int64 // <=0 means DefaultMaxBytes
	Workers  int   // preview reader pool size; <=0 means NumCPU
}

// candidate is a file that passed the glob filter, pre-cap.
type candidate struct {
	relPath string
	size    int64
}

// Index enumerates every regular file under root, applies the glob filter,
// enforces the count and byte caps, and returns a listing sorted ascending
// by relative path. The caps define a strict prefix of the sorted candidate
// list: enumeration stops at the first file whose addition would cross
// either cap, so no smaller file later in the order is considered.
//
// An empty listing is a valid result, not an error.
func Index(ctx context.Context, root string, opts Options) ([]types.FileEntry, error) {
	if err := globber.Validate(opts.Patterns); err != nil {
		return nil, err
	}

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	candidates, err := discover(ctx, root, opts.Patterns)
	if err != nil {
		return nil, err
	}

	// Byte order keeps the listing reproducible across repeated calls
	// regardless of filesystem walk order.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].relPath < candidates[j].relPath
	})

	entries := make([]types.FileEntry, 0)
	var total int64
	for _, c := range candidates {
		if len(entries) >= maxFiles {
			break
		}
		if total+c.size > maxBytes {
			break
		}
		entries = append(entries, types.FileEntry{Path: c.relPath, Size: c.size})
		total += c.size
	}

	if err := fillPreviews(ctx, root, entries, opts.Workers); err != nil {
		return nil, err
	}
	return entries, nil
}

// discover walks root and collects glob-matching regular files. A file whose
// size cannot be determined is skipped silently; that is a tolerated partial
// failure, not a fatal one.
func discover(ctx context.Context, root string, ps types.PatternSet) ([]candidate, error) {
	candidates := make([]candidate, 0, 64)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree: skip it and keep walking.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		ok, merr := globber.Match(rel, ps)
		if merr != nil {
			return merr
		}
		if !ok {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}

		candidates = append(candidates, candidate{relPath: rel, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// fillPreviews reads a bounded text prefix for each retained entry. Reads
// run on a bounded worker pool; each worker writes only its own slice index,
// so concurrency never perturbs the sorted output order. Decode or read
// errors leave the preview empty rather than failing the index.
func fillPreviews(ctx context.Context, root string, entries []types.FileEntry, workers int) error {
	if len(entries) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i].Preview = readPreview(filepath.Join(root, filepath.FromSlash(entries[i].Path)))
			return nil
		})
	}
	return g.Wait()
}

// readPreview returns up to PreviewChars characters of leading text, with
// invalid byte sequences dropped. Any error yields the empty string.
func readPreview(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, previewReadBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ""
	}

	text := strings.ToValidUTF8(string(buf[:n]), "")
	runes := []rune(text)
	if len(runes) > PreviewChars {
		runes = runes[:PreviewChars]
	}
	return string(runes)
}
