// Package errors provides structured error handling for arena operations.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Frame errors
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Roster errors
	CodeAlreadyJoined Code = "ALREADY_JOINED"

	// Round errors
	CodeForbidden          Code = "FORBIDDEN"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeInvalidBoardConfig Code = "INVALID_BOARD_CONFIG"
)
