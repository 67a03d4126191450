package domain

import (
	"errors"
	"fmt"
)

// DataFormatError reports a payload or dataset that lacks the expected time-series structure.
type DataFormatError struct {
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data format: %s: %v", e.Reason, e.Err)
	}
	return "data format: " + e.Reason
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// NewDataFormatError builds a DataFormatError with a formatted reason.
func NewDataFormatError(format string, a ...interface{}) *DataFormatError {
	return &DataFormatError{Reason: fmt.Sprintf(format, a...)}
}

// EmptyFeatureSetError reports that no training or inference examples remain.
type EmptyFeatureSetError struct {
	Ticker     string
	Rows       int
	WindowSize int
}

func (e *EmptyFeatureSetError) Error() string {
	return fmt.Sprintf("empty feature set for %s: %d usable rows, window size %d", e.Ticker, e.Rows, e.WindowSize)
}

// ModelNotFoundError reports that no trained model is persisted for a ticker.
type ModelNotFoundError struct {
	Ticker string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("no trained model for ticker %s", e.Ticker)
}

// ConfigurationError reports missing or invalid settings needed by a collaborator.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

// ErrInvalidTicker is returned for symbols that fail validation.
var ErrInvalidTicker = errors.New("invalid ticker")

// ErrTrainingInProgress is returned when another fit for the same ticker holds the lock.
var ErrTrainingInProgress = errors.New("training already in progress for ticker")

// IsModelNotFound reports whether err carries a ModelNotFoundError.
func IsModelNotFound(err error) bool {
	var target *ModelNotFoundError
	return errors.As(err, &target)
}
