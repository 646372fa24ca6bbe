package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an AI service is not configured or could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAdapterFailure indicates an external adapter (embedder, LLM, TTS) failed
	ErrAdapterFailure = errors.New("adapter failure")

	// ErrIndexNotReady indicates a search was attempted before the first successful build
	ErrIndexNotReady = errors.New("index not ready")

	// ErrValidationRule indicates a response validation rule failed internally
	ErrValidationRule = errors.New("validation rule failed")

	// ErrCancelled indicates the caller aborted the request before it was committed
	ErrCancelled = errors.New("request cancelled")

	// ErrLockTimeout indicates a conversation lock could not be acquired in time
	ErrLockTimeout = errors.New("lock timeout")
)

// InputError reports an empty or invalid utterance. It has no side effects.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// AdapterError wraps a failure of an external collaborator.
type AdapterError struct {
	Adapter string // "embedder", "llm", "tts"
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Adapter, e.Err)
}

// Is lets errors.Is match both ErrAdapterFailure and the wrapped cause.
func (e *AdapterError) Is(target error) bool {
	return target == ErrAdapterFailure
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IndexNotReadyError is returned by searches against an index that has never been built.
type IndexNotReadyError struct{}

func (e *IndexNotReadyError) Error() string {
	return ErrIndexNotReady.Error()
}

func (e *IndexNotReadyError) Unwrap() error {
	return ErrIndexNotReady
}

// ValidationRuleError reports a validator rule that failed or panicked.
type ValidationRuleError struct {
	Rule string
	Err  error
}

func (e *ValidationRuleError) Error() string {
	return fmt.Sprintf("validation rule %s: %v", e.Rule, e.Err)
}

func (e *ValidationRuleError) Is(target error) bool {
	return target == ErrValidationRule
}

func (e *ValidationRuleError) Unwrap() error {
	return e.Err
}
