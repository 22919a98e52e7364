package core

import "errors"

// Fatal-to-run errors. ProcessFile wraps these with the underlying detail,
// so callers should test with errors.Is.
var (
	ErrNoFile            = errors.New("no file provided")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingDependency = errors.New("spreadsheet support is not available")
	ErrEncodingFailure   = errors.New("encoding error")
	ErrDecodeFailure     = errors.New("invalid file content")
	ErrInvalidMode       = errors.New("invalid import mode")
	ErrFileTooLarge      = errors.New("file too large")
)

// ErrImportNotFound is returned by report lookups for unknown or expired
// import IDs.
var ErrImportNotFound = errors.New("import not found")

// IsFatal reports whether err is one of the errors that abort an import run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrEncodingFailure) ||
		errors.Is(err, ErrDecodeFailure) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrFileTooLarge)
}
