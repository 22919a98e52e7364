// Package memory holds contacts and countries in process memory.
// It backs dry runs of the command-line importer and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/contactimport/internal/core"
)

// Store implements core.ContactStore and core.CountryDirectory.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	contacts  []core.ContactRecord
	countries map[string]int64
	nextCID   int64
}

var (
	_ core.ContactStore     = (*Store)(nil)
	_ core.CountryDirectory = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{countries: make(map[string]int64)}
}

// AddCountry registers a country name and returns its id.
// Adding an existing name returns the existing id.
func (s *Store) AddCountry(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.countries[name]; ok {
		return id
	}
	s.nextCID++
	s.countries[name] = s.nextCID
	return s.nextCID
}

// FindCountryByName resolves an exact country name.
func (s *Store) FindCountryByName(_ context.Context, name string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.countries[name]
	return id, ok, nil
}

// FindByEmail returns a copy of the first contact with this email, or nil.
func (s *Store) FindByEmail(ctx context.Context, email string) (*core.ContactRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.Email == email {
			rec := c
			return &rec, nil
		}
	}
	return nil, nil
}

// Create appends a new contact.
func (s *Store) Create(ctx context.Context, fields core.ContactFields) (*core.ContactRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := core.ContactRecord{ID: s.nextID, ContactFields: fields}
	s.contacts = append(s.contacts, rec)
	return &rec, nil
}

// Update overwrites the stored contact with existing.ID.
func (s *Store) Update(ctx context.Context, existing *core.ContactRecord, fields core.ContactFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		if s.contacts[i].ID == existing.ID {
			s.contacts[i].ContactFields = fields
			existing.ContactFields = fields
			return nil
		}
	}
	return fmt.Errorf("contact %d not found", existing.ID)
}

// Contacts returns a snapshot of every stored contact in insertion order.
func (s *Store) Contacts() []core.ContactRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ContactRecord, len(s.contacts))
	copy(out, s.contacts)
	return out
}
