package session

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// Store is the durable key-value record of sessions, mapping an opaque
// session id to the absolute path of its materialized root. Writes must be
// committed to shared storage before Put returns so a later, possibly
// different, process instance can resolve the same id.
type Store interface {
	// Put records id -> root. A session's root is write-once; putting an
	// existing id is an error.
	Put(ctx context.Context, id, root string) error
	// Get returns the root for id, or types.ErrUnknownSession.
	Get(ctx context.Context, id string) (string, error)
	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// Sync is the explicit read-after-write visibility barrier: callers
	// invoke it before Get when their runtime does not otherwise guarantee
	// that the latest committed state is visible.
	Sync(ctx context.Context) error
	Close() error
}

// Manager owns the session lifecycle on top of a Store: id generation, the
// per-session directory under the shared data root, resolution, and
// teardown of both the record and the backing tree.
type Manager struct {
	store    Store
	dataRoot string
}

// NewManager creates a Manager persisting into store, with per-session
// directories allocated under dataRoot.
func NewManager(store Store, dataRoot string) *Manager {
	return &Manager{store: store, dataRoot: dataRoot}
}

// NewID returns a fresh collision-resistant session id.
func NewID() string {
	u := uuid.New()
	sum := sha256.Sum256(u[:])
	return fmt.Sprintf("src-%x", sum[:6])
}

// Dir returns the directory owned by a session id under the data root.
func (m *Manager) Dir(id string) string {
	return filepath.Join(m.dataRoot, id)
}

// Register persists the id -> root mapping. The root is write-once.
func (m *Manager) Register(ctx context.Context, id, root string) error {
	return m.store.Put(ctx, id, root)
}

// Resolve refreshes the store's view of shared storage, then returns the
// root recorded for id. A record whose backing directory has disappeared is
// treated the same as an unknown id.
func (m *Manager) Resolve(ctx context.Context, id string) (string, error) {
	if err := m.store.Sync(ctx); err != nil {
		return "", fmt.Errorf("sync session store: %w", err)
	}

	root, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s: prepared source is missing", types.ErrUnknownSession, id)
	}
	return root, nil
}

// Destroy removes the session's backing directory tree and its durable
// record. After Destroy, Resolve on the same id fails with
// types.ErrUnknownSession.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := os.RemoveAll(m.Dir(id)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return m.store.Delete(ctx, id)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
