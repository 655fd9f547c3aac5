// Package core provides the business logic for the account console.
//
// # Error Codes Reference
//
// This file maps technical error text to user-friendly messages with
// support codes. Patterns are matched case-insensitively with
// strings.Contains; the first match wins, so specific patterns come
// before general ones.
//
// Categories:
//
//	SET001-SET099  settings/policy availability
//	VAL001-VAL099  client-side validation
//	UPL001-UPL099  uploads and batch submission
//	ACC001-ACC099  account mutations
//	NET001-NET099  upstream connectivity
//	ERR000         fallback
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable
// guidance and a code for support reference.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Settings / policy availability (SET001)
	// =========================================================================
	{
		pattern: "settings not yet available",
		msg: UserMessage{
			Message: "Upload settings are not available yet",
			Action:  "Wait a moment and try again",
			Code:    "SET001",
		},
	},

	// =========================================================================
	// Client-side validation (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "form has validation errors",
		msg: UserMessage{
			Message: "Some fields need attention",
			Action:  "Fix the highlighted fields and resubmit",
			Code:    "VAL001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Check the allowed types listed next to the upload",
			Code:    "VAL002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The selected file is too large",
			Action:  "Choose a smaller file or compress this one",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Uploads and batch submission (UPL001-UPL003)
	// =========================================================================
	{
		pattern: "no target project",
		msg: UserMessage{
			Message: "No project selected",
			Action:  "Select at least one project before uploading",
			Code:    "UPL001",
		},
	},
	{
		pattern: "previous attempt is still in progress",
		msg: UserMessage{
			Message: "This action is already running",
			Action:  "Wait for the current attempt to finish",
			Code:    "UPL002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file to upload",
			Code:    "UPL003",
		},
	},

	// =========================================================================
	// Account mutations (ACC001)
	// =========================================================================
	{
		pattern: "current password",
		msg: UserMessage{
			Message: "The current password is not correct",
			Action:  "Re-enter your current password",
			Code:    "ACC001",
		},
	},

	// =========================================================================
	// Upstream connectivity (NET001-NET003)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "A backing service is unreachable",
			Action:  "Please try again in a few moments",
			Code:    "NET001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Check your connection and try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "NET003",
		},
	},
}

// defaultUserMessage is returned when no pattern matches.
var defaultUserMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the default message for nil errors and unmatched patterns.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultUserMessage
	}

	errText := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errText, ep.pattern) {
			return ep.msg
		}
	}

	return defaultUserMessage
}

// FormatUserError renders a UserMessage as a single line for plain-text
// surfaces: "Message. Action. (CODE)".
func FormatUserError(msg UserMessage) string {
	return fmt.Sprintf("%s. %s. (%s)", msg.Message, msg.Action, msg.Code)
}
