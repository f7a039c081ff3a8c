package core

// error_messages.go turns technical errors into messages the dashboard can
// show, each with a code support staff can look up.
//
// Codes by family:
//
//	FILE001-FILE004  uploaded file problems (size, empty, missing, unreadable)
//	MAP001-MAP003    mapping problems (required field unmapped, bad field, bad column)
//	VAL001-VAL003    cell values the database cannot accept
//	IMP001-IMP004    commit flow (duplicate commit, system busy, wrong state, bad kind)
//	SES001           session expired or unknown
//	DB001-DB005      database errors
//	REQ001-REQ004    request problems (cancelled, timed out, missing business, bad body)
//	AUTH001          API key rejected
//	RATE001          rate limited
//	ERR000           anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File
	{"file too large", UserMessage{"The file is larger than the upload limit", "Split the file into smaller files and import them one at a time", "FILE001"}},
	{"empty file", UserMessage{"The file has no data rows", "Make sure the first row holds column names and at least one row of data follows", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a CSV file to upload", "FILE003"}},
	{"multipart", UserMessage{"The upload could not be read", "Try uploading the file again", "FILE004"}},

	// Mapping
	{"required field not mapped", UserMessage{"Some required fields are not mapped to a column", "Map a column to every required field before importing", "MAP001"}},
	{"unknown target field", UserMessage{"That field does not exist for this import", "Pick one of the listed fields", "MAP002"}},
	{"column not found", UserMessage{"That column is not in the uploaded file", "Refresh the page and check the column name", "MAP003"}},

	// Values
	{"invalid date", UserMessage{"A date could not be read", "Use YYYY-MM-DD, MM/DD/YYYY or Jan 15, 2024", "VAL001"}},
	{"invalid number", UserMessage{"A number could not be read", "Remove text from number columns and use a plain decimal format", "VAL002"}},
	{"required field is empty", UserMessage{"A required value is empty in at least one row", "Fill in the required column for every row, or remove those rows", "VAL003"}},

	// Commit flow
	{"import already in progress", UserMessage{"An import of this type is already running", "Wait for it to finish before importing again", "IMP001"}},
	{"too many imports", UserMessage{"The system is busy with other imports", "Please wait a moment and try again", "IMP002"}},
	{"import session busy", UserMessage{"This import cannot do that right now", "Wait for the current step to finish, or start over", "IMP003"}},
	{"unknown import kind", UserMessage{"This type of import is not supported", "Choose customers, testimonials or services", "IMP004"}},

	// Session
	{"import session not found", UserMessage{"This import has expired", "Upload the file again to start a new import", "SES001"}},

	// Database
	{"duplicate key", UserMessage{"Some records already exist", "Remove rows that were imported before and try again", "DB001"}},
	{"violates check constraint", UserMessage{"A value is outside the allowed range", "Check ratings are between 1 and 5 and amounts are not negative", "DB002"}},
	{"connection refused", UserMessage{"Unable to reach the database", "Please try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"The database connection was interrupted", "Please try again", "DB004"}},
	{"deadlock", UserMessage{"The database was busy with conflicting work", "Please try again", "DB005"}},

	// Request
	{"context canceled", UserMessage{"The request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"The import took too long", "Try a smaller file or try again later", "REQ002"}},
	{"timeout", UserMessage{"The import took too long", "Try a smaller file or try again later", "REQ002"}},
	{"business id", UserMessage{"No business was selected", "Sign in again and retry", "REQ003"}},
	{"malformed request", UserMessage{"The request could not be read", "Refresh the page and try again", "REQ004"}},

	{"api key", UserMessage{"The request was not authorized", "Check the API key configured for the dashboard", "AUTH001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err, or the ERR000 fallback.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	s := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError carries both the technical error, for logs, and its user
// message, for responses.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
