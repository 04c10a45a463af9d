// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Exit codes follow sysexits conventions where practical. Scripts can rely on
// these staying stable across releases.
const (
	// ExitSuccess indicates the command completed without error.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified failure.
	ExitGeneralError = 1

	// ExitUsageError indicates invalid arguments or flags.
	ExitUsageError = 2

	// ExitConfigError indicates a configuration problem.
	ExitConfigError = 3

	// ExitNetworkError indicates the advisor backend or the upstream provider
	// could not be reached.
	ExitNetworkError = 4

	// ExitNotFoundError indicates a requested resource does not exist.
	ExitNotFoundError = 5

	// ExitTimeoutError indicates an operation exceeded its deadline.
	ExitTimeoutError = 6
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps an error with the command context it occurred in.
type CommandError struct {
	Command string // The command that failed (e.g., "import", "serve")
	Action  string // What was being attempted (e.g., "open ledger")
	Reason  string // Human-readable reason
	Err     error  // Underlying error, if any
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError with context.
func NewCommandError(command, action, reason string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// ValidationError indicates invalid user input with guidance on correct usage.
type ValidationError struct {
	Field   string // The field or argument that failed validation
	Value   string // The invalid value provided
	Reason  string // Why it's invalid
	Example string // Example of valid usage, shown when non-empty
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Example != "" {
		msg += fmt.Sprintf(" (example: %s)", e.Example)
	}
	return msg
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason, example string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// NotFoundError indicates a requested resource doesn't exist.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "thread", "config key")
	ID       string // Identifier that wasn't found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to the appropriate process exit code. Typed
// errors map directly; everything else is categorized by message content.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timed out"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return ExitTimeoutError

	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "unreachable"),
		strings.Contains(msg, "dial tcp"):
		return ExitNetworkError

	case strings.Contains(msg, "config"),
		strings.Contains(msg, "settings"):
		return ExitConfigError
	}

	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints an error to stderr in a user-friendly format.
func DisplayError(err error) {
	if err == nil {
		return
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", validationErr.Error())
		if validationErr.Example != "" {
			fmt.Fprintf(os.Stderr, "Try: %s\n", validationErr.Example)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// DisplayErrorJSON prints an error as a JSON envelope to stdout, for scripts
// that asked for --json output.
func DisplayErrorJSON(command string, err error) {
	if err == nil {
		return
	}
	NewJSONErrorResponse(command, err).Print()
}

// HandleErrorAndExit displays the error and exits with the mapped code.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}
	DisplayError(err)
	os.Exit(GetExitCode(err))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// WrapError adds context to an error while preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrMissingArgument creates a consistent missing-argument error.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationError(argName, "", "argument is required", usage)
}

// ErrUnsupportedFormat creates a consistent unsupported-format error.
func ErrUnsupportedFormat(format string, supported []string) error {
	return NewValidationError(
		"format",
		format,
		fmt.Sprintf("supported formats are %s", strings.Join(supported, ", ")),
		"",
	)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}
