package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/maloquacious/contacts/internal/logger"
	"github.com/maloquacious/contacts/internal/store"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Ensure SQLiteStore implements store.Backend
var _ store.Backend = (*SQLiteStore)(nil)

// SQLiteStore implements store.Backend using modernc.org/sqlite.
// Every Save replaces the whole contacts table in one transaction.
type SQLiteStore struct {
	dbPath          string
	db              *sql.DB
	expectedSchema  string
	preserveCorrupt bool
	log             logger.Logger
}

// Options configures a SQLiteStore.
type Options struct {
	// PreserveCorrupt copies an unreadable database aside before a save replaces it.
	PreserveCorrupt bool
	Logger          logger.Logger
}

// New creates a new SQLiteStore. The database is opened on first use.
func New(dbPath string, expectedSchema string, opts Options) *SQLiteStore {
	log := opts.Logger
	if log == nil {
		log = logger.Default
	}
	return &SQLiteStore{
		dbPath:          dbPath,
		expectedSchema:  expectedSchema,
		preserveCorrupt: opts.PreserveCorrupt,
		log:             log,
	}
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Open opens the SQLite database with safe defaults.
func (s *SQLiteStore) Open() error {
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Apply safe defaults
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// InitSchema creates the tables and records version. It is safe to call on an initialized database.
func (s *SQLiteStore) InitSchema(version string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(initialSchema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = tx.Exec(`INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s', 'now'))`, version)
	if err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CheckState returns the current state of the database.
func (s *SQLiteStore) CheckState() (store.StoreState, error) {
	if s.db == nil {
		exists, err := store.CheckExists(s.dbPath)
		if err != nil {
			return store.StateMissing, err
		}
		if !exists {
			return store.StateMissing, nil
		}
		if err := s.Open(); err != nil {
			return store.StateUninitialized, err
		}
	}

	// Check if schema_migrations table exists
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&count)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to check schema_migrations table: %w", err)
	}

	if count == 0 {
		return store.StateUninitialized, nil
	}

	// Check schema version
	version, err := s.GetSchemaVersion()
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to get schema version: %w", err)
	}

	if version != s.expectedSchema {
		return store.StateVersionMismatch, nil
	}

	return store.StateReady, nil
}

// GetSchemaVersion returns the current schema version from the database.
func (s *SQLiteStore) GetSchemaVersion() (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	var version string
	err := s.db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}

	return version, nil
}

// Load reads every contact in position order and the next id.
// A missing or uninitialized database yields an empty snapshot.
func (s *SQLiteStore) Load() (store.Snapshot, error) {
	empty := store.Snapshot{NextID: 1}

	state, err := s.CheckState()
	if err != nil {
		return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: err}
	}
	switch state {
	case store.StateMissing, store.StateUninitialized:
		return empty, nil
	case store.StateVersionMismatch:
		return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: fmt.Errorf("schema version mismatch, want %s", s.expectedSchema)}
	}

	rows, err := s.db.Query(`SELECT id, name, phone_number, email, address FROM contacts ORDER BY position`)
	if err != nil {
		return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: fmt.Errorf("failed to query contacts: %w", err)}
	}
	defer rows.Close()

	snap := empty
	for rows.Next() {
		var c store.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Email, &c.Address); err != nil {
			return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: fmt.Errorf("failed to scan contact: %w", err)}
		}
		snap.Contacts = append(snap.Contacts, c)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: fmt.Errorf("failed to iterate contacts: %w", err)}
	}

	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id'`).Scan(&snap.NextID)
	if err != nil && err != sql.ErrNoRows {
		return store.Snapshot{}, &store.PersistenceError{Op: "load", Path: s.dbPath, Err: fmt.Errorf("failed to query next id: %w", err)}
	}

	return snap, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *SQLiteStore) Save(snap store.Snapshot) error {
	if err := s.save(snap); err != nil {
		return &store.PersistenceError{Op: "save", Path: s.dbPath, Err: err}
	}
	return nil
}

func (s *SQLiteStore) save(snap store.Snapshot) error {
	state, err := store.StateUninitialized, s.Open()
	if err == nil {
		state, err = s.CheckState()
	}
	if notADatabase(err) {
		if err := s.replace(); err != nil {
			return err
		}
		state, err = store.StateUninitialized, nil
	}
	if err != nil {
		return err
	}
	switch state {
	case store.StateVersionMismatch:
		return fmt.Errorf("refusing to overwrite database with schema version other than %s", s.expectedSchema)
	case store.StateUninitialized:
		if err := s.InitSchema(s.expectedSchema); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO contacts (id, position, name, phone_number, email, address) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range snap.Contacts {
		if _, err := stmt.Exec(c.ID, i, c.Name, c.PhoneNumber, c.Email, c.Address); err != nil {
			return fmt.Errorf("failed to insert contact %d: %w", c.ID, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO meta (key, value) VALUES ('next_id', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, snap.NextID)
	if err != nil {
		return fmt.Errorf("failed to store next id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// notADatabase reports whether err means the file is not a usable SQLite database.
func notADatabase(err error) bool {
	var e *sqlitedrv.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code() {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// replace removes an unreadable database, copying it aside first if
// configured, and opens a fresh one in its place.
func (s *SQLiteStore) replace() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if s.preserveCorrupt {
		data, err := os.ReadFile(s.dbPath)
		if err != nil {
			return fmt.Errorf("failed to read unreadable database: %w", err)
		}
		dst := fmt.Sprintf("%s.corrupt-%s", s.dbPath, uuid.NewString()[:8])
		if err := os.WriteFile(dst, data, 0600); err != nil {
			return fmt.Errorf("failed to preserve unreadable database: %w", err)
		}
		s.log.Warn("unreadable database preserved", "path", s.dbPath, "copy", dst)
	}

	for _, p := range []string{s.dbPath, s.dbPath + "-wal", s.dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unreadable database: %w", err)
		}
	}
	s.log.Warn("replacing unreadable database", "path", s.dbPath)
	return s.Open()
}
