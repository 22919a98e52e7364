package core

// error_messages.go maps technical errors to user messages with codes that
// operators can quote to support.
//
// Codes by category:
//
//	FILE001 file too large        FILE004 no file provided
//	FILE002 unsupported format    FILE005 invalid file content
//	FILE003 encoding error        FILE006 spreadsheet support missing
//
//	IMP001  invalid import mode   IMP002  import not found
//
//	UPL002  too many imports      UPL004  request cancelled
//	UPL005  request timed out
//
//	DB001-DB007 database constraint and connectivity errors
//
//	ERR000  anything else; check the logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Errors coming back from
// the database driver carry no sentinel, so they fall through to
// case-insensitive substring patterns where the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE002",
	}},
	{ErrEncodingFailure, UserMessage{
		Message: "File contains characters that could not be decoded",
		Action:  "Save the file as UTF-8 and upload it again",
		Code:    "FILE003",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or XLSX file to import",
		Code:    "FILE004",
	}},
	{ErrDecodeFailure, UserMessage{
		Message: "The file could not be read",
		Action:  "Check that the file is a valid CSV or XLSX export",
		Code:    "FILE005",
	}},
	{ErrMissingDependency, UserMessage{
		Message: "Spreadsheet files are not supported on this server",
		Action:  "Export the sheet as CSV and upload that instead",
		Code:    "FILE006",
	}},
	{ErrInvalidMode, UserMessage{
		Message: "Unknown import mode",
		Action:  "Choose create, update or both",
		Code:    "IMP001",
	}},
	{ErrImportNotFound, UserMessage{
		Message: "Import not found",
		Action:  "The result may have expired. Run the import again",
		Code:    "IMP002",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched against the lower-cased error text.
// Specific patterns must come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "A contact with this email already exists",
		Action:  "Use update or both mode to change existing contacts",
		Code:    "DB001",
	}},
	{"violates unique", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate emails in your file",
		Code:    "DB002",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check the country names in your file",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns the
// user message; Unwrap returns the technical error for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
