package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RawRow maps a lower-cased column header to the cell text of one data row.
type RawRow map[string]string

// Row is a decoded data row together with its visible line number in the
// source file (the header is line 1, so the first data row is line 2).
type Row struct {
	Line   int
	Values RawRow
}

// FileFormat is the tabular format selected from the file name.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
)

// ImportMode controls which writes the resolver is allowed to perform.
type ImportMode string

const (
	ModeCreate ImportMode = "create"
	ModeUpdate ImportMode = "update"
	ModeBoth   ImportMode = "both"
)

// DefaultMode is used when the caller does not choose a mode.
const DefaultMode = ModeCreate

// ModeInfo describes an import mode for selection lists.
type ModeInfo struct {
	Mode  ImportMode `json:"mode"`
	Label string     `json:"label"`
}

// Modes returns every import mode in display order.
func Modes() []ModeInfo {
	return []ModeInfo{
		{Mode: ModeCreate, Label: "Create New Records"},
		{Mode: ModeUpdate, Label: "Update Existing Records"},
		{Mode: ModeBoth, Label: "Create and Update"},
	}
}

// ParseMode converts user input to an ImportMode.
// An empty string yields DefaultMode.
func ParseMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeCreate:
		return ModeCreate, nil
	case ModeUpdate:
		return ModeUpdate, nil
	case ModeBoth:
		return ModeBoth, nil
	}
	return "", fmt.Errorf("%w %q (expected create, update or both)", ErrInvalidMode, s)
}

// allowsCreate reports whether rows without an existing record may be created.
func (m ImportMode) allowsCreate() bool {
	return m == ModeCreate || m == ModeBoth
}

// allowsUpdate reports whether rows matching an existing record may be updated.
func (m ImportMode) allowsUpdate() bool {
	return m == ModeUpdate || m == ModeBoth
}

// Contact is the canonical import unit built from one row.
type Contact struct {
	Name        string
	Email       string
	Phone       string
	Street      string
	City        string
	Zip         string
	CountryName string
}

// ContactFields is the value set written to the contact store.
// CountryID is nil when the row named no country or the name did not resolve.
type ContactFields struct {
	Name      string
	Email     string
	Phone     string
	Street    string
	City      string
	Zip       string
	CountryID *int64
}

// ContactRecord is a contact as held by the store.
type ContactRecord struct {
	ID int64
	ContactFields
}

// ContactStore is the key-field-indexed datastore that owns contact records.
type ContactStore interface {
	// FindByEmail returns the first record whose email matches exactly,
	// or nil when there is none.
	FindByEmail(ctx context.Context, email string) (*ContactRecord, error)
	Create(ctx context.Context, fields ContactFields) (*ContactRecord, error)
	// Update overwrites existing with fields in place.
	Update(ctx context.Context, existing *ContactRecord, fields ContactFields) error
}

// CountryDirectory resolves country names to country references.
type CountryDirectory interface {
	FindCountryByName(ctx context.Context, name string) (id int64, ok bool, err error)
}

// OutcomeKind tags a RowOutcome.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// RowOutcome is the result of processing one non-blank input row.
// Message is set for Skipped and Failed outcomes.
type RowOutcome struct {
	Kind    OutcomeKind `json:"kind"`
	Line    int         `json:"line"`
	Message string      `json:"message,omitempty"`
}

// Severity is the display level of an import notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Notification is the bounded, human-readable summary shown to the operator.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Sticky   bool     `json:"sticky"`
}

// ImportReport is the immutable result of one import run.
type ImportReport struct {
	ID           string        `json:"id"`
	FileName     string        `json:"fileName"`
	Mode         ImportMode    `json:"mode"`
	Format       FileFormat    `json:"format"`
	Encoding     string        `json:"encoding,omitempty"`
	TotalRows    int           `json:"totalRows"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Messages     []string      `json:"messages"`
	Duration     time.Duration `json:"duration"`
	Notification Notification  `json:"notification"`
}

// Summary returns the one-line result summary.
func (r *ImportReport) Summary() string {
	return fmt.Sprintf("Import completed: %d created, %d updated", r.Created, r.Updated)
}
