package document

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks an invalid document header
	ErrConfig = errors.New("invalid document configuration")
	// ErrValidation marks a rejected record
	ErrValidation = errors.New("invalid record")
)

// ConfigError is fatal to document creation
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("document config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// ValidationError is fatal to the single insertion that raised it
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
