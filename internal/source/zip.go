package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// RemoteZipSource downloads a zip archive over HTTP(S) and extracts it into
// the destination. The download streams straight to disk so memory usage
// stays bounded regardless of archive size.
type RemoteZipSource struct {
	URL string

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// LocalZipSource extracts an archive already on local disk, used for direct
// uploads.
type LocalZipSource struct {
	Path string
}

var defaultZipClient = &http.Client{Timeout: 5 * time.Minute}

func (r *RemoteZipSource) Materialize(ctx context.Context, dest string) (root string, err error) {
	defer func() { cleanupOnError(dest, err) }()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("%w: create destination: %v", types.ErrMaterialization, err)
	}

	client := r.Client
	if client == nil {
		client = defaultZipClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: bad zip url: %v", types.ErrMaterialization, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %v", types.ErrMaterialization, r.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download %s: status %d", types.ErrMaterialization, r.URL, resp.StatusCode)
	}

	zipPath := filepath.Join(dest, "archive.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: write archive: %v", types.ErrMaterialization, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("%w: write archive: %v", types.ErrMaterialization, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("%w: write archive: %v", types.ErrMaterialization, err)
	}

	if err := extractZip(zipPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (l *LocalZipSource) Materialize(ctx context.Context, dest string) (root string, err error) {
	defer func() { cleanupOnError(dest, err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("%w: create destination: %v", types.ErrMaterialization, err)
	}
	if err := extractZip(l.Path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// extractZip fully extracts the archive at zipPath into destDir. Entries
// that would escape destDir are rejected.
func extractZip(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", types.ErrMaterialization, err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return fmt.Errorf("%w: archive entry %q escapes destination", types.ErrMaterialization, f.Name)
		}

		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
		}
		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o200)
	if err != nil {
		return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: extract %q: %v", types.ErrMaterialization, f.Name, err)
	}
	return nil
}
