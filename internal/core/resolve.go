package core

import (
	"context"
	"fmt"
)

// Resolver decides, per validated contact, whether to create, update or skip
// it under a fixed import mode.
//
//	existing | create  | update  | both
//	---------+---------+---------+--------
//	no       | Created | Skipped | Created
//	yes      | Skipped | Updated | Updated
type Resolver struct {
	contacts  ContactStore
	countries CountryDirectory
	mode      ImportMode
}

// NewResolver creates a resolver bound to one import run's mode.
func NewResolver(contacts ContactStore, countries CountryDirectory, mode ImportMode) *Resolver {
	return &Resolver{contacts: contacts, countries: countries, mode: mode}
}

// Resolve applies the decision table to c. Collaborator errors and panics are
// converted to a Failed outcome; nothing escapes the row.
func (r *Resolver) Resolve(ctx context.Context, c Contact, line int) (outcome RowOutcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = failedOutcome(line, fmt.Errorf("panic: %v", p))
		}
	}()

	outcome, err := r.resolve(ctx, c, line)
	if err != nil {
		return failedOutcome(line, err)
	}
	return outcome
}

func (r *Resolver) resolve(ctx context.Context, c Contact, line int) (RowOutcome, error) {
	fields, err := r.fields(ctx, c)
	if err != nil {
		return RowOutcome{}, err
	}

	existing, err := r.contacts.FindByEmail(ctx, c.Email)
	if err != nil {
		return RowOutcome{}, fmt.Errorf("find contact: %w", err)
	}

	switch {
	case existing == nil && r.mode.allowsCreate():
		if _, err := r.contacts.Create(ctx, fields); err != nil {
			return RowOutcome{}, fmt.Errorf("create contact: %w", err)
		}
		return RowOutcome{Kind: OutcomeCreated, Line: line}, nil

	case existing != nil && r.mode.allowsUpdate():
		if err := r.contacts.Update(ctx, existing, fields); err != nil {
			return RowOutcome{}, fmt.Errorf("update contact: %w", err)
		}
		return RowOutcome{Kind: OutcomeUpdated, Line: line}, nil
	}

	return RowOutcome{
		Kind:    OutcomeSkipped,
		Line:    line,
		Message: fmt.Sprintf("Row %d: Skipped - %s (Import mode doesn't allow this operation)", line, c.Email),
	}, nil
}

// fields builds the write payload, resolving the country name if present.
// An unknown country leaves CountryID nil.
func (r *Resolver) fields(ctx context.Context, c Contact) (ContactFields, error) {
	fields := ContactFields{
		Name:   c.Name,
		Email:  c.Email,
		Phone:  c.Phone,
		Street: c.Street,
		City:   c.City,
		Zip:    c.Zip,
	}
	if c.CountryName == "" || r.countries == nil {
		return fields, nil
	}

	id, ok, err := r.countries.FindCountryByName(ctx, c.CountryName)
	if err != nil {
		return fields, fmt.Errorf("find country: %w", err)
	}
	if ok {
		fields.CountryID = &id
	}
	return fields, nil
}

func failedOutcome(line int, err error) RowOutcome {
	return RowOutcome{
		Kind:    OutcomeFailed,
		Line:    line,
		Message: fmt.Sprintf("Row %d: Error processing - %v", line, err),
	}
}
