// Package session persists the mapping from an opaque session id to a
// materialized source tree, so a later request, possibly served by a
// different process instance, can reuse the first request's filesystem work.
//
// # Store Implementations
//
// ManifestStore writes one manifest.json per session inside the session's
// own directory on the shared data mount. It takes an optional VolumeSyncer
// whose Commit/Reload pair models mounts that require explicit visibility
// barriers; on a plain local or POSIX-coherent mount the NopSyncer default
// applies.
//
// SQLiteStore keeps the records in a WAL-mode SQLite database with
// semver-versioned migrations. The driver is selected at build time:
// mattn/go-sqlite3 with the cgo_sqlite tag, modernc.org/sqlite otherwise.
//
// # Lifecycle
//
// Manager generates ids, registers the write-once id -> root mapping after
// materialization succeeds, resolves ids behind the Sync barrier, and tears
// down both the record and the backing directory on Destroy:
//
//	mgr := session.NewManager(store, dataRoot)
//	id := session.NewID()
//	... materialize under mgr.Dir(id) ...
//	err := mgr.Register(ctx, id, root)
//	root, err := mgr.Resolve(ctx, id)
//	err = mgr.Destroy(ctx, id)
package session
