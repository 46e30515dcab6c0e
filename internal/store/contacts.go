package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/maloquacious/contacts/internal/logger"
)

// Store holds contacts in insertion order and persists the whole collection
// through its Backend after every successful mutation.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	log      logger.Logger
	contacts []Contact
	nextID   int
	saveErr  error
}

// New creates an empty Store. Call Load to restore persisted contacts.
func New(backend Backend, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default
	}
	return &Store{
		backend: backend,
		log:     log,
		nextID:  1,
	}
}

// Open creates a Store and loads it from backend.
// Load failures are logged and leave the store empty.
func Open(backend Backend, log logger.Logger) *Store {
	s := New(backend, log)
	_ = s.Load()
	return s
}

// Load replaces the in-memory state with the persisted snapshot.
// If the snapshot cannot be read the store is reset to empty with next id 1,
// the failure is logged and returned.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = nil
	s.nextID = 1

	snap, err := s.backend.Load()
	if err == nil {
		err = s.checkSnapshot(&snap)
	}
	if err != nil {
		s.log.Error("failed to load contacts, starting with empty contact list",
			"path", s.backend.Path(), "error", err)
		return err
	}

	s.contacts = snap.Contacts
	s.nextID = snap.NextID
	s.log.Debug("contacts loaded", "path", s.backend.Path(), "count", len(s.contacts), "nextId", s.nextID)
	return nil
}

// checkSnapshot rejects duplicate or non-positive ids and repairs a next id
// that does not exceed every stored id.
func (s *Store) checkSnapshot(snap *Snapshot) error {
	seen := make(map[int]bool, len(snap.Contacts))
	maxID := 0
	for _, c := range snap.Contacts {
		if c.ID < 1 {
			return &PersistenceError{Op: "load", Path: s.backend.Path(), Err: fmt.Errorf("invalid contact id %d", c.ID)}
		}
		if seen[c.ID] {
			return &PersistenceError{Op: "load", Path: s.backend.Path(), Err: fmt.Errorf("duplicate contact id %d", c.ID)}
		}
		seen[c.ID] = true
		maxID = max(maxID, c.ID)
	}
	if snap.NextID <= maxID {
		s.log.Warn("next id behind stored ids, repairing", "nextId", snap.NextID, "repaired", maxID+1)
		snap.NextID = maxID + 1
	}
	return nil
}

// save writes the whole collection. A failure is logged and remembered but
// the in-memory mutation stands.
func (s *Store) save() {
	snap := Snapshot{Contacts: slices.Clone(s.contacts), NextID: s.nextID}
	if err := s.backend.Save(snap); err != nil {
		s.saveErr = err
		s.log.Error("failed to save contacts", "path", s.backend.Path(), "error", err)
		return
	}
	s.saveErr = nil
}

// SaveErr returns the error from the most recent save, or nil if it succeeded.
func (s *Store) SaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Add validates the fields, assigns the next id and appends the contact.
func (s *Store) Add(name, phone, email, address string) (Contact, error) {
	if err := Validate(name, phone, email); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Contact{
		ID:          s.nextID,
		Name:        strings.TrimSpace(name),
		PhoneNumber: strings.TrimSpace(phone),
		Email:       strings.TrimSpace(email),
		Address:     strings.TrimSpace(address),
	}
	s.nextID++
	s.contacts = append(s.contacts, c)
	s.save()
	return c, nil
}

// Update overwrites the mutable fields of the contact with the given id.
// Fields are validated before the id is looked up.
func (s *Store) Update(id int, name, phone, email, address string) (Contact, error) {
	if err := Validate(name, phone, email); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Contact{}, &NotFoundError{ID: id}
	}
	c := &s.contacts[i]
	c.Name = strings.TrimSpace(name)
	c.PhoneNumber = strings.TrimSpace(phone)
	c.Email = strings.TrimSpace(email)
	c.Address = strings.TrimSpace(address)
	s.save()
	return *c, nil
}

// Delete removes the contact with the given id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	s.contacts = slices.Delete(s.contacts, i, i+1)
	s.save()
	return nil
}

// Get returns the contact with the given id.
func (s *Store) Get(id int) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Contact{}, &NotFoundError{ID: id}
	}
	return s.contacts[i], nil
}

// SearchByName returns contacts whose name contains term, ignoring case.
// An empty term matches every contact.
func (s *Store) SearchByName(term string) []Contact {
	term = strings.ToLower(strings.TrimSpace(term))
	return s.filter(func(c Contact) bool {
		return strings.Contains(strings.ToLower(c.Name), term)
	})
}

// SearchByPhone returns contacts whose phone number contains term.
func (s *Store) SearchByPhone(term string) []Contact {
	term = strings.TrimSpace(term)
	return s.filter(func(c Contact) bool {
		return strings.Contains(c.PhoneNumber, term)
	})
}

// List returns a copy of every contact in store order.
func (s *Store) List() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Count returns the number of stored contacts.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}

// NextID returns the id the next Add will assign.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *Store) filter(match func(Contact) bool) []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.contacts, func(c Contact) bool { return c.ID == id })
}
