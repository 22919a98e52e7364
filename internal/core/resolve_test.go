package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResolverDecisionTable(t *testing.T) {
	tests := []struct {
		mode     ImportMode
		existing bool
		want     OutcomeKind
	}{
		{ModeCreate, false, OutcomeCreated},
		{ModeCreate, true, OutcomeSkipped},
		{ModeUpdate, false, OutcomeSkipped},
		{ModeUpdate, true, OutcomeUpdated},
		{ModeBoth, false, OutcomeCreated},
		{ModeBoth, true, OutcomeUpdated},
	}

	for _, tt := range tests {
		name := string(tt.mode) + "/new"
		if tt.existing {
			name = string(tt.mode) + "/existing"
		}
		t.Run(name, func(t *testing.T) {
			store := newFakeContacts()
			if tt.existing {
				store = newFakeContacts(ContactFields{Name: "Old", Email: "a@x.com"})
			}

			r := NewResolver(store, nil, tt.mode)
			got := r.Resolve(context.Background(), Contact{Name: "Alice", Email: "a@x.com"}, 2)

			if got.Kind != tt.want {
				t.Fatalf("Kind = %q, want %q (message %q)", got.Kind, tt.want, got.Message)
			}
			if got.Line != 2 {
				t.Errorf("Line = %d, want 2", got.Line)
			}

			switch tt.want {
			case OutcomeSkipped:
				want := "Row 2: Skipped - a@x.com (Import mode doesn't allow this operation)"
				if got.Message != want {
					t.Errorf("Message = %q, want %q", got.Message, want)
				}
				if store.writes() != 0 {
					t.Errorf("skipped row wrote %d times", store.writes())
				}
			case OutcomeCreated, OutcomeUpdated:
				if got.Message != "" {
					t.Errorf("Message = %q, want empty", got.Message)
				}
				if rec := store.byEmail("a@x.com"); rec == nil || rec.Name != "Alice" {
					t.Errorf("stored record = %+v, want name Alice", rec)
				}
			}
		})
	}
}

func TestResolverUpdateOverwritesFields(t *testing.T) {
	norway := int64(47)
	store := newFakeContacts(ContactFields{
		Name:      "Alice",
		Email:     "a@x.com",
		Phone:     "123",
		City:      "Oslo",
		CountryID: &norway,
	})

	r := NewResolver(store, fakeCountries{}, ModeUpdate)
	got := r.Resolve(context.Background(), Contact{Name: "Alice B", Email: "a@x.com", City: "Bergen"}, 2)
	if got.Kind != OutcomeUpdated {
		t.Fatalf("Kind = %q, want updated", got.Kind)
	}

	rec := store.byEmail("a@x.com")
	if rec.Name != "Alice B" || rec.City != "Bergen" {
		t.Errorf("record = %+v", rec.ContactFields)
	}
	if rec.Phone != "" {
		t.Errorf("Phone = %q, want cleared", rec.Phone)
	}
	if rec.CountryID != nil {
		t.Errorf("CountryID = %v, want cleared", *rec.CountryID)
	}
}

func TestResolverCountry(t *testing.T) {
	countries := fakeCountries{ids: map[string]int64{"norway": 47}}

	t.Run("known country resolves", func(t *testing.T) {
		store := newFakeContacts()
		r := NewResolver(store, countries, ModeCreate)
		r.Resolve(context.Background(), Contact{Name: "A", Email: "a@x.com", CountryName: "Norway"}, 2)

		rec := store.byEmail("a@x.com")
		if rec == nil || rec.CountryID == nil || *rec.CountryID != 47 {
			t.Fatalf("record = %+v, want country 47", rec)
		}
	})

	t.Run("unknown country leaves reference empty", func(t *testing.T) {
		store := newFakeContacts()
		r := NewResolver(store, countries, ModeCreate)
		got := r.Resolve(context.Background(), Contact{Name: "A", Email: "a@x.com", CountryName: "Atlantis"}, 2)

		if got.Kind != OutcomeCreated {
			t.Fatalf("Kind = %q, want created", got.Kind)
		}
		if rec := store.byEmail("a@x.com"); rec.CountryID != nil {
			t.Errorf("CountryID = %v, want nil", *rec.CountryID)
		}
	})

	t.Run("directory error fails the row", func(t *testing.T) {
		store := newFakeContacts()
		r := NewResolver(store, fakeCountries{err: errors.New("directory offline")}, ModeCreate)
		got := r.Resolve(context.Background(), Contact{Name: "A", Email: "a@x.com", CountryName: "Norway"}, 5)

		if got.Kind != OutcomeFailed {
			t.Fatalf("Kind = %q, want failed", got.Kind)
		}
		if !strings.HasPrefix(got.Message, "Row 5: Error processing - find country:") {
			t.Errorf("Message = %q", got.Message)
		}
		if store.writes() != 0 {
			t.Errorf("failed row wrote %d times", store.writes())
		}
	})
}

func TestResolverStoreFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*fakeContacts)
		mode    ImportMode
		wantMsg string
	}{
		{
			name:    "lookup error",
			setup:   func(f *fakeContacts) { f.findErr = errors.New("connection reset") },
			mode:    ModeBoth,
			wantMsg: "Row 3: Error processing - find contact: connection reset",
		},
		{
			name:    "create error",
			setup:   func(f *fakeContacts) { f.createErr = errors.New("disk full") },
			mode:    ModeCreate,
			wantMsg: "Row 3: Error processing - create contact: disk full",
		},
		{
			name: "update error",
			setup: func(f *fakeContacts) {
				f.records = append(f.records, &ContactRecord{ID: 9, ContactFields: ContactFields{Email: "a@x.com"}})
				f.updateErr = errors.New("row locked")
			},
			mode:    ModeUpdate,
			wantMsg: "Row 3: Error processing - update contact: row locked",
		},
		{
			name:    "panic is contained",
			setup:   func(f *fakeContacts) { f.panicOn = "a@x.com" },
			mode:    ModeBoth,
			wantMsg: "Row 3: Error processing - panic: store exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeContacts()
			tt.setup(store)

			got := NewResolver(store, nil, tt.mode).Resolve(context.Background(), Contact{Name: "A", Email: "a@x.com"}, 3)
			if got.Kind != OutcomeFailed {
				t.Fatalf("Kind = %q, want failed", got.Kind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}
