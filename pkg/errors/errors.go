package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration or dataset validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IterationError is fatal for a migration run: an iteration produced zero
// scoreable cases, so the loop has nothing left to reason about. The
// iteration number identifies where the run stopped.
type IterationError struct {
	Iteration int
	Err       error
}

// NewIterationError constructs an IterationError.
func NewIterationError(iteration int, err error) error {
	return &IterationError{Iteration: iteration, Err: err}
}

func (e *IterationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("iteration %d failed: %v", e.Iteration, e.Err)
}

// Unwrap exposes the root error.
func (e *IterationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ReviserError indicates the instruction reviser could not produce a usable
// revision. The run stops; callers still receive the best result found so far.
type ReviserError struct {
	Iteration int
	Err       error
}

// NewReviserError constructs a ReviserError.
func NewReviserError(iteration int, err error) error {
	return &ReviserError{Iteration: iteration, Err: err}
}

func (e *ReviserError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("reviser failed after iteration %d: %v", e.Iteration, e.Err)
}

// Unwrap exposes the root error.
func (e *ReviserError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PolicyError indicates issues within policy registration or lookup.
type PolicyError struct {
	Policy  string
	Message string
	Err     error
}

// NewPolicyError constructs a PolicyError for the given policy name.
func NewPolicyError(policy string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &PolicyError{Policy: policy, Message: message, Err: err}
}

func (e *PolicyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Policy != "" {
		return fmt.Sprintf("policy error [%s]: %s", e.Policy, e.Message)
	}
	return fmt.Sprintf("policy error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PolicyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderError wraps a failure reported by a model provider, keeping the
// provider name for operator-facing messages.
type ProviderError struct {
	Provider string
	Err      error
}

// NewProviderError constructs a ProviderError.
func NewProviderError(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Provider != "" {
		return fmt.Sprintf("provider error [%s]: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
