package core

// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. Users can quote the code to support staff for faster
// diagnosis.
//
// # Engine Errors (CFG, SCH, CMP)
//
// Matched by error kind with errors.Is, before any text pattern:
//
//	CFG001 - Invalid configuration: an unknown strategy, method or threshold
//	         Action: Check the cleaning options against the documented values
//
//	SCH001 - Schema problem: a referenced column is missing, names collide,
//	         or the table has no columns
//	         Action: Check the CSV header and the column names in your options
//
//	CMP001 - Computation failed: a statistic could not be computed
//	         Action: Choose another fill strategy or allow nulls to be left in place
//
// # Input Errors (CSV001-CSV099)
//
//	CSV001 - Empty input: the CSV has no header row
//	         Patterns: "empty csv"
//
//	CSV002 - Ragged rows: a row has a different number of fields than the header
//	         Patterns: "wrong number of fields"
//
//	CSV003 - Malformed CSV: quoting or encoding could not be parsed
//	         Patterns: "parse error", "bare \"", "extraneous"
//
//	CSV004 - Duplicate header: two columns share a name
//	         Patterns: "duplicate column name"
//
// # Request Errors
//
//	UPL002 - System busy: too many cleaning runs in progress
//	         Patterns: "too many concurrent"
//
//	REQ001 - Body too large: the request exceeds the configured size limit
//	         Patterns: "request body too large"
//
//	REQ002 - Bad parameters: a query parameter is missing or malformed
//	         Patterns: "invalid request"
//
//	RATE001 - Rate limited: too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check the server log
// for the original error when users report ERR000.
//
// Patterns are matched case-insensitively using strings.Contains. The first
// match wins, so more specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// kindMessages are matched with errors.Is before any pattern.
var kindMessages = []struct {
	kind error
	msg  UserMessage
}{
	{ErrConfiguration, UserMessage{
		Message: "The cleaning configuration is invalid",
		Action:  "Check the cleaning options against the documented values",
		Code:    "CFG001",
	}},
	{ErrSchema, UserMessage{
		Message: "The table does not match the requested cleaning",
		Action:  "Check the CSV header and the column names in your options",
		Code:    "SCH001",
	}},
	{ErrComputation, UserMessage{
		Message: "A statistic needed for cleaning could not be computed",
		Action:  "Choose another fill strategy or allow nulls to be left in place",
		Code:    "CMP001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Input Errors (CSV001-CSV004)
	// =========================================================================
	{
		pattern: "empty csv",
		msg: UserMessage{
			Message: "The CSV file is empty",
			Action:  "Upload a CSV file with a header row",
			Code:    "CSV001",
		},
	},
	{
		pattern: "wrong number of fields",
		msg: UserMessage{
			Message: "A row has a different number of fields than the header",
			Action:  "Ensure every row has the same number of comma-separated values",
			Code:    "CSV002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Check quoting and save the file as UTF-8",
			Code:    "CSV003",
		},
	},
	{
		pattern: "bare \"",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Check quoting and save the file as UTF-8",
			Code:    "CSV003",
		},
	},
	{
		pattern: "extraneous",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Check quoting and save the file as UTF-8",
			Code:    "CSV003",
		},
	},

	{
		pattern: "duplicate column name",
		msg: UserMessage{
			Message: "Two columns in the CSV header have the same name",
			Action:  "Rename the duplicated header so every column name is unique",
			Code:    "CSV004",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "System is busy processing other cleaning runs",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The uploaded data exceeds the size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request parameters are invalid",
			Action:  "Check the query parameters of the request",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Engine errors are classified by kind; everything else by case-insensitive
// pattern. Unmatched errors map to ERR000.
//
// Example:
//
//	_, err := core.ParseKeepPolicy("sometimes")
//	msg := MapError(err)
//	// msg.Code == "CFG001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.msg
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
