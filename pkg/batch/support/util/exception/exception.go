// Package exception provides custom error types and error handling utilities for the Riptide batch engine.
// It standardizes errors that occur during batch processing, allowing them to be classified
// by the retry policies that decide whether a failed operation is attempted again.
package exception

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// errorRegistry is a registry that maps matcher names referenced in configuration to concrete Go error instances.
// It holds error instances (singletons) for comparison using errors.Is.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error type in the registry.
// Registered error types can be referenced by name in retryable-matcher configuration
// and are resolved by the IsErrorOfType function for error classification.
//
// name: A unique identifier for the error type.
// prototype: An instance of the error to be registered. Used for comparison with errors.Is.
//
// If prototype is nil or name is empty, this function will panic.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered checks if the specified error type name is registered in the registry.
// name: The error type name to check.
// Returns: true if registered, false otherwise.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// BatchError is a custom error type that occurs during batch processing.
// It holds the module where the error occurred, a message, the wrapped original error,
// and a flag indicating whether it is retryable.
type BatchError struct {
	// Module indicates the module where the error occurred (e.g., "scheduler", "processor", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isRetryable: Whether this error is retryable.
// Returns: A new BatchError instance.
func NewBatchError(module, message string, originalErr error, isRetryable bool) *BatchError {
	// Capture stack trace (for debugging purposes)
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  stackTrace,
	}
}

// NewBatchErrorf creates a new BatchError instance using a format string.
// An optional retryable flag and an optional error are extracted from the end of the
// variadic arguments 'a' in the order: [isRetryable bool], [originalErr error].
// The remaining arguments are used for fmt.Sprintf.
//
// Examples:
// NewBatchErrorf("processor", "failed to process item %d: %s", 42, "oops", true, io.EOF)
// -> message: "failed to process item 42: oops", isRetryable: true, originalErr: io.EOF
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	args := a

	// Check arguments from the end and extract error and isRetryable in order
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  stackTrace,
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsBatchError determines if the given error is of type BatchError.
// err: The error to check.
// Returns: true if it is a BatchError, false otherwise.
func IsBatchError(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	return errors.As(err, &be)
}

// ErrAttemptTimeout is a sentinel error indicating that a single processing attempt
// exceeded its configured timeout. Timeouts are always classified as retryable.
var ErrAttemptTimeout = errors.New("attempt timed out")

// NewAttemptTimeoutError creates a retryable BatchError indicating a timed-out processing attempt.
// module: The module where the timeout occurred.
// timeoutMs: The configured per-attempt timeout in milliseconds.
// Returns: A new BatchError wrapping ErrAttemptTimeout.
func NewAttemptTimeoutError(module string, timeoutMs int) *BatchError {
	return NewBatchError(module, fmt.Sprintf("processing attempt timed out after %dms", timeoutMs), ErrAttemptTimeout, true)
}

// IsAttemptTimeout determines if an error indicates a timed-out processing attempt.
// err: The error to check.
// Returns: true if it wraps ErrAttemptTimeout, false otherwise.
func IsAttemptTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAttemptTimeout)
}

// IsErrorOfType checks if an error matches a specified matcher name (string).
// matcher can be a registered sentinel name (e.g. "context.DeadlineExceeded"),
// a Go error type name (e.g. "*net.OpError"), or a substring of an error message
// (e.g. "connection refused"). Substring comparison is case-insensitive, so the
// matcher "timeout" also matches errors containing "Timeout".
// It checks in order: registered sentinel errors (errors.Is), substring of error message,
// and type name comparison using reflection, walking the whole error chain.
// err: The error to check.
// matcher: The error type name or substring to compare against.
// Returns: true if it matches, false otherwise.
func IsErrorOfType(err error, matcher string) bool {
	if err == nil {
		return false
	}

	// 1. Comparison with registered sentinel errors using errors.Is
	registryMutex.RLock()
	targetError, ok := errorRegistry[matcher]
	registryMutex.RUnlock()

	if ok {
		if errors.Is(err, targetError) {
			return true
		}
	}

	loweredMatcher := strings.ToLower(matcher)

	// 2. Traverse the error chain and compare by substring of error message or type name
	currentErr := err
	for currentErr != nil {
		// 2-1. Case-insensitive comparison by substring of error message
		if strings.Contains(strings.ToLower(currentErr.Error()), loweredMatcher) {
			return true
		}

		// 2-2. Comparison by type name (using reflection)
		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			// Check both pointer and non-pointer types
			if errType.String() == matcher || (errType.Kind() == reflect.Ptr && errType.Elem().String() == matcher) {
				return true
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

// ExtractErrorMessage extracts the error message string from an error.
// For BatchError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
// err: The error from which to extract the message.
// Returns: The error message string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

func init() {
	// Register sentinel errors so that errors.Is can detect them by constant name.
	RegisterErrorType("riptide.ErrAttemptTimeout", ErrAttemptTimeout)

	// Common network-related error names referenced by retryable-matcher configuration.
	RegisterErrorType("io.EOF", errors.New("io.EOF"))
	RegisterErrorType("net.OpError", errors.New("net.OpError"))
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
}
