package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	cfgErr := ConfigurationError{Field: "paths", Message: "must be greater than 0"}
	dataErr := InsufficientDataError{Required: 60, Got: 12}
	valErr := ValidationError{Field: "weights", Message: "must sum to 1"}

	assert.True(t, IsConfigurationError(cfgErr))
	assert.True(t, IsInsufficientDataError(dataErr))
	assert.True(t, IsValidationError(valErr))

	// Wrapped errors still match.
	assert.True(t, IsConfigurationError(fmt.Errorf("optimize: %w", cfgErr)))
	assert.True(t, IsInsufficientDataError(fmt.Errorf("fit: %w", dataErr)))
	assert.True(t, IsValidationError(fmt.Errorf("estimate: %w", valErr)))

	// Categories stay distinct.
	assert.False(t, IsConfigurationError(valErr))
	assert.False(t, IsValidationError(cfgErr))
	assert.False(t, IsInsufficientDataError(valErr))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: "name is required"},
		{Field: "target_amount", Message: "must be greater than 0"},
	}

	assert.True(t, IsValidationError(errs))
	assert.Equal(t, "name: name is required; target_amount: must be greater than 0", errs.Error())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "configuration: paths: must be greater than 0",
		ConfigurationError{Field: "paths", Message: "must be greater than 0"}.Error())
	assert.Equal(t, "insufficient data: need at least 60 observations, got 12",
		InsufficientDataError{Required: 60, Got: 12}.Error())
}
