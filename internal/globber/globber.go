// Package globber implements the include/exclude glob predicate applied to
// slash-normalized relative paths during indexing.
package globber

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Validate checks every pattern in the set up front so a malformed pattern is
// reported before any filesystem walk begins.
func Validate(ps types.PatternSet) error {
	for _, pat := range ps.Include {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("%w: include %q", types.ErrBadPattern, pat)
		}
	}
	for _, pat := range ps.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("%w: exclude %q", types.ErrBadPattern, pat)
		}
	}
	return nil
}

// Match reports whether relPath is selected by the pattern set. Matching is
// case-sensitive and both patterns and paths use forward slashes regardless
// of host OS.
//
// Selection rule: a path matching any exclude pattern is rejected outright;
// otherwise it is accepted when the include list is empty or when it matches
// at least one include pattern.
func Match(relPath string, ps types.PatternSet) (bool, error) {
	for _, pat := range ps.Exclude {
		ok, err := doublestar.Match(pat, relPath)
		if err != nil {
			return false, fmt.Errorf("%w: exclude %q", types.ErrBadPattern, pat)
		}
		if ok {
			return false, nil
		}
	}

	if len(ps.Include) == 0 {
		return true, nil
	}

	for _, pat := range ps.Include {
		ok, err := doublestar.Match(pat, relPath)
		if err != nil {
			return false, fmt.Errorf("%w: include %q", types.ErrBadPattern, pat)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
