// Package file persists the contact snapshot as a single JSON document.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/maloquacious/contacts/internal/logger"
	"github.com/maloquacious/contacts/internal/store"
)

// Ensure FileStore implements store.Backend
var _ store.Backend = (*FileStore)(nil)

// Options configures a FileStore.
type Options struct {
	// PreserveCorrupt copies an undecodable file aside before Load reports it.
	PreserveCorrupt bool
	Logger          logger.Logger
}

// FileStore implements store.Backend on top of an afero filesystem.
type FileStore struct {
	fs              afero.Fs
	path            string
	preserveCorrupt bool
	log             logger.Logger
}

// New creates a FileStore for the document at path.
func New(fsys afero.Fs, path string, opts Options) *FileStore {
	log := opts.Logger
	if log == nil {
		log = logger.Default
	}
	return &FileStore{
		fs:              fsys,
		path:            path,
		preserveCorrupt: opts.PreserveCorrupt,
		log:             log,
	}
}

// Path returns the document location.
func (f *FileStore) Path() string {
	return f.path
}

// Close is a no-op; every Save closes its file.
func (f *FileStore) Close() error {
	return nil
}

// Load reads and decodes the document. A missing document is an empty snapshot.
func (f *FileStore) Load() (store.Snapshot, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.Snapshot{NextID: 1}, nil
		}
		return store.Snapshot{}, &store.PersistenceError{Op: "read", Path: f.path, Err: err}
	}

	snap, err := decode(data)
	if err != nil {
		if f.preserveCorrupt {
			f.preserve(data)
		}
		return store.Snapshot{}, &store.PersistenceError{Op: "decode", Path: f.path, Err: err}
	}
	return snap, nil
}

// Save replaces the document atomically.
func (f *FileStore) Save(snap store.Snapshot) error {
	if snap.Contacts == nil {
		snap.Contacts = []store.Contact{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &store.PersistenceError{Op: "encode", Path: f.path, Err: err}
	}
	if err := f.atomicWrite(data, 0644); err != nil {
		return &store.PersistenceError{Op: "write", Path: f.path, Err: err}
	}
	return nil
}

// CheckState reports whether the document is missing, undecodable or ready.
func (f *FileStore) CheckState() (store.StoreState, error) {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.StateMissing, nil
		}
		return store.StateMissing, fmt.Errorf("failed to stat data file: %w", err)
	}
	if info.IsDir() {
		return store.StateMissing, fmt.Errorf("data path is a directory, expected file: %s", f.path)
	}

	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to read data file: %w", err)
	}
	if _, err := decode(data); err != nil {
		return store.StateUninitialized, nil
	}
	return store.StateReady, nil
}

func decode(data []byte) (store.Snapshot, error) {
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// preserve copies an unreadable document next to the original.
func (f *FileStore) preserve(data []byte) {
	dst := fmt.Sprintf("%s.corrupt-%s", f.path, uuid.NewString()[:8])
	if err := afero.WriteFile(f.fs, dst, data, 0600); err != nil {
		f.log.Error("failed to preserve unreadable data file", "path", f.path, "error", err)
		return
	}
	f.log.Warn("unreadable data file preserved", "path", f.path, "copy", dst)
}

// atomicWrite writes data to a temporary file in the target directory and renames it into place.
func (f *FileStore) atomicWrite(data []byte, perm os.FileMode) error {
	dir := filepath.Dir(f.path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, dir, ".tmp-contacts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var success bool
	defer func() {
		if !success {
			if err := f.fs.Remove(tmp.Name()); err != nil {
				f.log.Warn("failed to remove temporary file", "path", tmp.Name(), "error", err)
			}
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %q: %w", tmp.Name(), err)
	}
	if err := f.fs.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := f.fs.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
