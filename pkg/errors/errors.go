// Package errors provides structured error types for rb.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the core packages and the CLI
//   - Machine-readable error codes the CLI maps to messages and exit codes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation and parse failures
//   - *_NOT_FOUND: Missing directories, executables, scripts or projects
//   - EXECUTION_FAILED: A spawned subprocess exited nonzero
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCommandNotFound, "command not found: %s", name)
//	if errors.Is(err, errors.ErrCodeCommandNotFound) {
//	    os.Exit(127)
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", dir)
package errors

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation and parse errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidProject Code = "INVALID_PROJECT"
	ErrCodeInvalidScript  Code = "INVALID_SCRIPT"

	// Resource not found errors
	ErrCodeRubiesDirNotFound Code = "RUBIES_DIR_NOT_FOUND"
	ErrCodeNoSuitableRuby    Code = "NO_SUITABLE_RUBY"
	ErrCodeCommandNotFound   Code = "COMMAND_NOT_FOUND"
	ErrCodeBundlerNotFound   Code = "BUNDLER_NOT_FOUND"
	ErrCodeNoBundlerProject  Code = "NO_BUNDLER_PROJECT"
	ErrCodeNoProject         Code = "NO_PROJECT"
	ErrCodeScriptNotFound    Code = "SCRIPT_NOT_FOUND"

	// Filesystem state errors
	ErrCodeIO            Code = "IO_ERROR"
	ErrCodeProjectExists Code = "PROJECT_EXISTS"

	// Subprocess errors
	ErrCodeExecutionFailed Code = "EXECUTION_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ExitError reports a subprocess that started and exited with a nonzero
// status. The CLI propagates Code as its own exit status.
type ExitError struct {
	Program string
	Code    int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Program, e.Code)
}

// ProcessExitCode returns the status a shell would report for a finished
// process: its exit code, or 128+signal when a signal killed it.
func ProcessExitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// ExitCode maps an error to a process exit status.
//
//   - nil: 0
//   - COMMAND_NOT_FOUND: 127 (shell convention)
//   - *ExitError: the child's own status (1 if it does not fit a byte)
//   - anything else: 1
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code < 0 || exitErr.Code > 255 {
			return 1
		}
		return exitErr.Code
	}
	if Is(err, ErrCodeCommandNotFound) {
		return 127
	}
	return 1
}
