package core

import (
	"context"
	"strings"
	"sync"
)

// fakeContacts is an in-package ContactStore for tests. Hooks let a test
// inject failures per call.
type fakeContacts struct {
	mu      sync.Mutex
	nextID  int64
	records []*ContactRecord
	creates int
	updates int

	findErr   error
	createErr error
	updateErr error
	panicOn   string // email that makes FindByEmail panic
}

func newFakeContacts(seed ...ContactFields) *fakeContacts {
	f := &fakeContacts{}
	for _, s := range seed {
		f.nextID++
		f.records = append(f.records, &ContactRecord{ID: f.nextID, ContactFields: s})
	}
	return f
}

func (f *fakeContacts) FindByEmail(_ context.Context, email string) (*ContactRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn != "" && email == f.panicOn {
		panic("store exploded")
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.records {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) Create(_ context.Context, fields ContactFields) (*ContactRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.creates++
	rec := &ContactRecord{ID: f.nextID, ContactFields: fields}
	f.records = append(f.records, rec)
	cp := *rec
	return &cp, nil
}

func (f *fakeContacts) Update(_ context.Context, existing *ContactRecord, fields ContactFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, r := range f.records {
		if r.ID == existing.ID {
			r.ContactFields = fields
			f.updates++
			return nil
		}
	}
	return nil
}

func (f *fakeContacts) byEmail(email string) *ContactRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Email == email {
			return r
		}
	}
	return nil
}

func (f *fakeContacts) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.updates
}

type fakeCountries struct {
	ids map[string]int64
	err error
}

func (f fakeCountries) FindCountryByName(_ context.Context, name string) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.ids[strings.ToLower(name)]
	return id, ok, nil
}
