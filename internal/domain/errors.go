package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError indicates invalid simulation or optimization parameters
// detected before any work starts. It is always synchronous and never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

// InsufficientDataError indicates a historical series too short for fitting.
// Callers must supply more data or accept a flat, regime-agnostic fallback.
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Required, e.Got)
}

// ValidationError indicates malformed goal or allocation inputs
// (negative weights, thresholds outside [0,1], weights not summing to 1).
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects multiple validation errors into one.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}

// IsInsufficientDataError reports whether err is (or wraps) an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var ie InsufficientDataError
	return errors.As(err, &ie)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var ves ValidationErrors
	return errors.As(err, &ves)
}
