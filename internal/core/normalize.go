package core

import "strings"

// columnMapping is the fixed table from lower-cased header to contact field.
// Columns not listed here are ignored.
var columnMapping = []struct {
	header string
	set    func(c *Contact, v string)
}{
	{"name", func(c *Contact, v string) { c.Name = v }},
	{"email", func(c *Contact, v string) { c.Email = v }},
	{"phone", func(c *Contact, v string) { c.Phone = v }},
	{"street", func(c *Contact, v string) { c.Street = v }},
	{"city", func(c *Contact, v string) { c.City = v }},
	{"zip", func(c *Contact, v string) { c.Zip = v }},
	{"country", func(c *Contact, v string) { c.CountryName = v }},
}

// KnownColumns returns the headers mapped onto contact fields, in table order.
func KnownColumns() []string {
	cols := make([]string, len(columnMapping))
	for i, m := range columnMapping {
		cols[i] = m.header
	}
	return cols
}

// Normalize maps a raw row onto a contact draft. Required fields are not
// checked here; see ValidateContact.
func Normalize(raw RawRow) Contact {
	var c Contact
	for _, m := range columnMapping {
		if v, ok := raw[m.header]; ok {
			m.set(&c, CleanCell(v))
		}
	}
	return c
}

// CleanCell trims whitespace and unwraps the ="value" form spreadsheet
// exports use to force text cells.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// isBlankRow reports whether every value in the row is empty or whitespace.
func isBlankRow(raw RawRow) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
