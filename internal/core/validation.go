package core

// validation.go enforces the required contact fields before a row reaches
// the resolver. A row missing its name or email is reported with whatever
// partial values it carried so the operator can find it in the file.

import "fmt"

// ValidationError describes a row rejected for missing required fields.
type ValidationError struct {
	Line  int
	Name  string
	Email string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Row %d: Missing required field - Name: %s, Email: %s", e.Line, e.Name, e.Email)
}

// ValidateContact returns a *ValidationError when name or email is empty.
func ValidateContact(c Contact, line int) error {
	if c.Name == "" || c.Email == "" {
		return &ValidationError{Line: line, Name: c.Name, Email: c.Email}
	}
	return nil
}
