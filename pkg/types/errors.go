package types

import "errors"

// Core error kinds. Components wrap these with fmt.Errorf("%w: ...") so
// callers can classify failures with errors.Is while keeping the detail.
var (
	// ErrMaterialization is returned when a source cannot be turned into a
	// directory tree: bad URL or ref, unreachable network, invalid archive,
	// or a missing subdirectory after clone.
	ErrMaterialization = errors.New("materialization failed")

	// ErrBadPattern is returned for a malformed include or exclude glob.
	// No partial index is produced when pattern validation fails.
	ErrBadPattern = errors.New("bad glob pattern")

	// ErrMissingSelection is returned when a selected path does not resolve
	// to an existing regular file under the session root. Bundle reads are
	// all-or-nothing, so nothing is returned alongside it.
	ErrMissingSelection = errors.New("selected file missing")

	// ErrUnknownSession is returned when a session id cannot be resolved,
	// either because it never existed or because it was destroyed.
	ErrUnknownSession = errors.New("unknown session")

	// ErrInvalidInput is returned for a malformed source description before
	// any filesystem work begins.
	ErrInvalidInput = errors.New("invalid input")
)
