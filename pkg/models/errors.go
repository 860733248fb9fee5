package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine and the numeric library. Callers match
// them with errors.Is; wrapping adds operation context.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrValidationFailed     = errors.New("validation failed")
	ErrConfigurationInvalid = errors.New("configuration invalid")
	ErrCalculationFailed    = errors.New("calculation failed")
)

// ValidationReport is the outcome of a validator pass over an input series.
// Warnings do not block a calculation; errors do.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Quality  float64  `json:"quality"` // data quality score in [0, 1]
}

// AsError converts a failed report into a ValidationError. Returns nil for
// a valid report.
func (r ValidationReport) AsError() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors, Warnings: r.Warnings, Quality: r.Quality}
}

// ValidationError carries the collected findings of a rejected input.
// errors.Is(err, ErrValidationFailed) matches it.
type ValidationError struct {
	Errors   []string
	Warnings []string
	Quality  float64 // data quality score in [0, 1]
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("validation failed: %d errors, %d warnings", len(e.Errors), len(e.Warnings))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
