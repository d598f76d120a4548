package core

// # Error Codes Reference
//
// This file maps technical errors to operator-facing messages with a code
// that can be quoted in runbooks and incident notes.
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A row with this id already exists
//	        Patterns: "duplicate key"
//
//	DB002 - Unique constraint: A unique column already holds this value
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced row does not exist in the store
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to the store
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Store connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Store operation timed out
//	        Patterns: "timeout", "context deadline exceeded", "database is locked"
//
//	DB007 - Missing table: Target table does not exist
//	        Patterns: "does not exist", "no such table"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Validation failed: Source data has structural errors
//	         Patterns: "validation failed"
//	VAL002 - Duplicate id: The same id appears twice in a source file
//	         Patterns: "duplicate id"
//	VAL003 - Broken reference: A reference names an id that does not exist
//	         Patterns: "references unknown"
//	VAL004 - Invalid value: A value cannot be stored in its declared column
//	         Patterns: "invalid number", "invalid bool", "invalid text"
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Unreadable source: A source file could not be parsed
//	         Patterns: "source error"
//	SRC002 - Unsupported format: Source file extension is not supported
//	         Patterns: "unsupported source format"
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Not wired: A registered table has no declared columns
//	         Patterns: "not wired"
//	CFG002 - Unknown table: The table key is not registered
//	         Patterns: "unknown table"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information with guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Code for runbook reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation (VAL001-VAL004)
	// Checked first: validation messages embed store-like words such as "id".
	// =========================================================================
	{
		pattern: "duplicate id",
		msg: UserMessage{
			Message: "The same id appears more than once in a source file",
			Action:  "Remove or rename the repeated entries",
			Code:    "VAL002",
		},
	},
	{
		pattern: "references unknown",
		msg: UserMessage{
			Message: "A reference points at an id that does not exist",
			Action:  "Add the referenced row or correct the reference",
			Code:    "VAL003",
		},
	},
	{
		pattern: "validation failed",
		msg: UserMessage{
			Message: "Source data has structural errors",
			Action:  "Run the validate command and fix every listed error",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "A value cannot be stored in its declared column",
			Action:  "Check the column type in the table registry",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid bool",
		msg: UserMessage{
			Message: "A value cannot be stored in its declared column",
			Action:  "Check the column type in the table registry",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid text",
		msg: UserMessage{
			Message: "A value cannot be stored in its declared column",
			Action:  "Check the column type in the table registry",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// Configuration (CFG001-CFG002)
	// =========================================================================
	{
		pattern: "not wired",
		msg: UserMessage{
			Message: "A registered table has no declared columns",
			Action:  "Declare the table's columns before seeding",
			Code:    "CFG001",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "List registered tables with the tables command",
			Code:    "CFG002",
		},
	},

	// =========================================================================
	// Source (SRC001-SRC002)
	// =========================================================================
	{
		pattern: "unsupported source format",
		msg: UserMessage{
			Message: "Source file format is not supported",
			Action:  "Use .json, .yaml or .yml source files",
			Code:    "SRC002",
		},
	},
	{
		pattern: "source error",
		msg: UserMessage{
			Message: "A source file could not be read",
			Action:  "Check the file is well-formed JSON or YAML",
			Code:    "SRC001",
		},
	},

	// =========================================================================
	// Store constraints (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A row with this id already exists",
			Action:  "Check for rows written outside the seed pipeline",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A unique column already holds this value",
			Action:  "Check the source for repeated values in unique columns",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A unique column already holds this value",
			Action:  "Check the source for repeated values in unique columns",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced row does not exist in the store",
			Action:  "Seed the referenced table first or fix the reference",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced row does not exist in the store",
			Action:  "Seed the referenced table first or fix the reference",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Store connectivity (DB004-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the store",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Store connection was interrupted",
			Action:  "Run the command again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Store operation timed out",
			Action:  "Run the command again or raise SEED_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Store operation timed out",
			Action:  "Run the command again or raise SEED_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Store operation timed out",
			Action:  "Wait for other writers to finish and try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "Target table does not exist",
			Action:  "Create the schema before seeding",
			Code:    "DB007",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "Target table does not exist",
			Action:  "Create the schema before seeding",
			Code:    "DB007",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message. The
// first matching pattern wins; ERR000 is the fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator-facing message. Error
// returns the message; Unwrap returns the original error for logging.
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
	return &UserError{Technical: err, User: MapError(err)}
}
