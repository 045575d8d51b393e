package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

const manifestName = "manifest.json"

// VolumeSyncer models the commit/reload pair of a shared storage mount that
// needs explicit visibility barriers (e.g. a replicated volume). Commit
// makes local writes visible to other processes; Reload makes other
// processes' committed writes visible locally.
type VolumeSyncer interface {
	Commit(ctx context.Context) error
	Reload(ctx context.Context) error
}

// NopSyncer is used for mounts with native read-after-write semantics.
type NopSyncer struct{}

func (NopSyncer) Commit(context.Context) error { return nil }
func (NopSyncer) Reload(context.Context) error { return nil }

// ManifestStore persists one manifest.json per session inside that
// session's directory on the shared data mount, so the record lives and
// dies with the tree it describes.
type ManifestStore struct {
	dataRoot string
	syncer   VolumeSyncer
}

// manifest is the durable record format.
type manifest struct {
	Root string `json:"root"`
}

// NewManifestStore creates a store rooted at dataRoot. A nil syncer gets
// NopSyncer.
func NewManifestStore(dataRoot string, syncer VolumeSyncer) (*ManifestStore, error) {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create data root: %w", err)
	}
	if syncer == nil {
		syncer = NopSyncer{}
	}
	return &ManifestStore{dataRoot: dataRoot, syncer: syncer}, nil
}

func (s *ManifestStore) manifestPath(id string) string {
	return filepath.Join(s.dataRoot, id, manifestName)
}

// Put writes the manifest, fsyncs it, and commits the mount so the record
// is visible to other process instances before the caller reports success.
func (s *ManifestStore) Put(ctx context.Context, id, root string) error {
	path := s.manifestPath(id)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("session %s already exists", id)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(manifest{Root: root})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}

	return s.syncer.Commit(ctx)
}

func (s *ManifestStore) Get(ctx context.Context, id string) (string, error) {
	data, err := os.ReadFile(s.manifestPath(id))
	if err != nil {
		return "", fmt.Errorf("%w: %s", types.ErrUnknownSession, id)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil || m.Root == "" {
		return "", fmt.Errorf("%w: %s: corrupt manifest", types.ErrUnknownSession, id)
	}
	return m.Root, nil
}

// Delete removes the record and commits the deletion so later calls on
// other instances do not resolve a destroyed session.
func (s *ManifestStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.manifestPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove manifest: %w", err)
	}
	return s.syncer.Commit(ctx)
}

// Sync reloads the mount's latest committed state.
func (s *ManifestStore) Sync(ctx context.Context) error {
	return s.syncer.Reload(ctx)
}

func (s *ManifestStore) Close() error { return nil }
