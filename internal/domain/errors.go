package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError marks invalid optimization configuration (criteria
// weights). Fatal: the caller must fix the configuration and retry.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// DataError marks missing or malformed required input (absent coordinates,
// empty required lists). Fatal for the call that hit it.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "data error: " + e.Reason
}

// TransientError marks a recoverable external-fetch failure (conditions,
// locations, remaining orders). The monitor skips the cycle and retries on
// the next tick; it never terminates monitoring for one of these.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the named operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
