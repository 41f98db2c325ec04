package pendingop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileStore persists pending operations as one JSON file per identity.
// Writes go through a temp file and an atomic rename so a crash mid-write
// never leaves a torn record, and the write is flushed before Put returns.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(_ context.Context, ownerID string) (*PendingOperation, error) {
	raw, err := os.ReadFile(s.path(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoPendingOperation
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt pending operation record for %s: %w", ownerID, err)
	}

	return rec.toOperation(), nil
}

func (s *FileStore) Put(ctx context.Context, ownerID string, op *PendingOperation) error {
	existing, err := s.Get(ctx, ownerID)
	if err != nil && !errors.Is(err, ErrNoPendingOperation) {
		return err
	}
	if existing != nil && existing.TransactionID != op.TransactionID {
		return ErrOperationInFlight
	}

	raw, err := json.Marshal(toRecord(op))
	if err != nil {
		return fmt.Errorf("failed to encode pending operation: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "pendingop-*.tmp")
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Join(ErrStoreUnavailable, err)
	}
	// Sync before rename: the record must be durable before the caller
	// follows a redirect away from the process.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmp.Name(), s.path(ownerID)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context, ownerID string) error {
	if err := os.Remove(s.path(ownerID)); err != nil && !os.IsNotExist(err) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) path(ownerID string) string {
	// Escape the identity so arbitrary IDs cannot traverse out of the dir.
	return filepath.Join(s.dir, url.PathEscape(ownerID)+".json")
}
