// Package core provides the business logic for bulk contact imports.
//
// The package has no transport dependencies. The web server and the
// command-line importer both drive it through [Service].
//
// # Pipeline
//
// One import run moves through these stages:
//
//  1. [Decoder.Decode] picks CSV or XLSX from the file name and produces
//     header-keyed rows. CSV bytes are decoded with the first of utf-8,
//     latin-1, iso-8859-1 and windows-1252 that yields clean text.
//  2. Blank rows are dropped. Every other row keeps its visible line number
//     (the header is line 1).
//  3. [Normalize] maps known columns onto a [Contact] and cleans the cells.
//  4. [ValidateContact] rejects rows without a name or email.
//  5. [Resolver.Resolve] looks the contact up by email and creates, updates
//     or skips it according to the [ImportMode].
//  6. An [Aggregator] tallies outcomes into an [ImportReport] whose
//     [Notification] shows at most [DisplayedMessageLimit] messages.
//
// File-level problems abort the run before any row is written; see
// [IsFatal]. Row-level problems are recorded in the report and the run
// continues.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE006: file errors (size, format, encoding, content)
//   - IMP001-IMP002: import mode and report lookup errors
//   - UPL002-UPL005: admission, cancellation and timeouts
//   - DB001-DB007: database errors (duplicates, constraints, connections)
//
// # Spreadsheet Support
//
// XLSX decoding is compiled in by default. Building with the noxlsx tag
// leaves it out, and .xlsx uploads then fail with [ErrMissingDependency].
package core
