// Package bundle concatenates a caller-selected set of files into a single
// text blob with per-file headers, ready to hand to the section generator.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Read resolves each selected path against root, in the caller-supplied
// order, and joins the file contents into one string. Each file is preceded
// by a header line of the form:
//
//	# === relative/path ===
//
// with blocks separated by a blank line.
//
// The operation is all-or-nothing: if any selected path does not resolve to
// an existing regular file under root, Read fails with
// types.ErrMissingSelection and returns no partial bundle. Invalid byte
// sequences in file contents are dropped rather than propagated as errors.
func Read(root string, selected []string) (string, error) {
	parts := make([]string, 0, len(selected))

	for _, rel := range selected {
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return "", fmt.Errorf("%w: %q escapes session root", types.ErrMissingSelection, rel)
		}

		path := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return "", fmt.Errorf("%w: %q", types.ErrMissingSelection, rel)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %q", types.ErrMissingSelection, rel)
		}

		content := strings.ToValidUTF8(string(data), "")
		parts = append(parts, fmt.Sprintf("# === %s ===\n%s\n", rel, content))
	}

	return strings.Join(parts, "\n"), nil
}
