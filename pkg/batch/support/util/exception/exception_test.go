package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/riptide/pkg/batch/support/util/exception"
)

// Custom error type for testing reflection and type matching
type CustomError struct {
	Msg string
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("CustomError: %s", e.Msg)
}

func TestNewBatchError(t *testing.T) {
	originalErr := errors.New("db connection refused")
	be := exception.NewBatchError("history", "failed to connect", originalErr, true)

	assert.Equal(t, "history", be.Module)
	assert.Equal(t, "failed to connect", be.Message)
	assert.Equal(t, originalErr, be.Unwrap())
	assert.True(t, be.IsRetryable())
	assert.Contains(t, be.Error(), "[history] failed to connect: db connection refused")
	assert.NotEmpty(t, be.StackTrace)
}

func TestNewBatchErrorf(t *testing.T) {
	// Case 1: Only message args
	be1 := exception.NewBatchErrorf("scheduler", "item %d not found", 10)
	assert.False(t, be1.IsRetryable())
	assert.Nil(t, be1.Unwrap())
	assert.Contains(t, be1.Error(), "[scheduler] item 10 not found")

	// Case 2: Message args + isRetryable
	be2 := exception.NewBatchErrorf("net", "timeout occurred", true)
	assert.True(t, be2.IsRetryable())
	assert.Nil(t, be2.Unwrap())

	// Case 3: Message args + originalErr
	originalErr3 := errors.New("io error")
	be3 := exception.NewBatchErrorf("io", "read failed", originalErr3)
	assert.False(t, be3.IsRetryable())
	assert.Equal(t, originalErr3, be3.Unwrap())

	// Case 4: Message args + isRetryable + originalErr
	originalErr4 := errors.New("transient error")
	be4 := exception.NewBatchErrorf("db", "lock contention", true, originalErr4)
	assert.True(t, be4.IsRetryable())
	assert.Equal(t, originalErr4, be4.Unwrap())
}

func TestAttemptTimeoutError(t *testing.T) {
	be := exception.NewAttemptTimeoutError("scheduler", 5000)

	assert.True(t, be.IsRetryable())
	assert.True(t, errors.Is(be, exception.ErrAttemptTimeout))
	assert.True(t, exception.IsAttemptTimeout(be))
	assert.Contains(t, be.Error(), "timed out after 5000ms")

	wrapped := fmt.Errorf("chunk 2: %w", be)
	assert.True(t, exception.IsAttemptTimeout(wrapped))

	assert.False(t, exception.IsAttemptTimeout(errors.New("some other error")))
	assert.False(t, exception.IsAttemptTimeout(nil))
}

func TestIsErrorOfType(t *testing.T) {
	exception.RegisterErrorType("CustomErrorType", &CustomError{})

	// 1. Sentinel match through the registry
	timeoutErr := exception.NewAttemptTimeoutError("scheduler", 100)
	assert.True(t, exception.IsErrorOfType(timeoutErr, "riptide.ErrAttemptTimeout"))

	// 2. Wrapped error match by type name
	customErr := &CustomError{Msg: "test"}
	wrappedErr := exception.NewBatchError("processor", "custom failure", customErr, false)
	assert.True(t, exception.IsErrorOfType(wrappedErr, "*exception_test.CustomError"))

	// 3. Message substring match, case-insensitive
	assert.True(t, exception.IsErrorOfType(wrappedErr, "custom failure"))
	assert.True(t, exception.IsErrorOfType(wrappedErr, "CUSTOM FAILURE"))
	assert.True(t, exception.IsErrorOfType(errors.New("dial tcp: Connection Refused"), "connection refused"))

	// 4. Deeply wrapped error match
	deeplyWrapped := fmt.Errorf("level 2: %w", wrappedErr)
	assert.True(t, exception.IsErrorOfType(deeplyWrapped, "*exception_test.CustomError"))
	assert.False(t, exception.IsErrorOfType(deeplyWrapped, "NonExistentError"))

	// 5. Nil check
	assert.False(t, exception.IsErrorOfType(nil, "any"))
}

func TestIsBatchError(t *testing.T) {
	be := exception.NewBatchError("config", "invalid value", nil, false)
	assert.True(t, exception.IsBatchError(be))
	assert.True(t, exception.IsBatchError(fmt.Errorf("wrapped: %w", be)))
	assert.False(t, exception.IsBatchError(errors.New("plain")))
	assert.False(t, exception.IsBatchError(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	be := exception.NewBatchError("processor", "boom", errors.New("underlying"), false)
	assert.Equal(t, "boom", exception.ExtractErrorMessage(be))
	assert.Equal(t, "plain error", exception.ExtractErrorMessage(errors.New("plain error")))
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
}
