package chatgpt

import (
	"errors"
	"fmt"
)

// Error codes classify API failures so callers can branch without
// string matching.
const (
	CodeUser           = -1
	CodeUnknown        = 0
	CodeServer         = 1
	CodeRateLimit      = 2
	CodeInvalidRequest = 3
	CodeExpiredToken   = 4
	CodeInvalidToken   = 5
)

// Error is the structured failure type for every API and client error.
// Source names the subsystem that produced it, Message is human
// readable, and Code is one of the Code* constants.
type Error struct {
	Source  string
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Source, e.Message, e.Code)
}

func userError(message string) *Error {
	return &Error{Source: "client", Message: message, Code: CodeUser}
}

func serverError(source, message string) *Error {
	return &Error{Source: source, Message: message, Code: CodeServer}
}

func codeOf(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

// IsRateLimited reports whether err is the hourly rate limit rejection.
func IsRateLimited(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeRateLimit
}

// IsInvalidCredentials reports whether err means the bearer token was
// rejected outright.
func IsInvalidCredentials(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeInvalidRequest
}

// IsUpstream reports whether err originated on the server side.
func IsUpstream(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeServer
}

// IsUserError reports whether err was caused by bad caller input.
func IsUserError(err error) bool {
	code, ok := codeOf(err)
	return ok && code == CodeUser
}
