package errors

import (
	"errors"
	"fmt"
)

// ErrUnknownOption marks an answer that references an option the question does not have.
var ErrUnknownOption = errors.New("unknown option")

// ConfigurationError reports grading configuration that cannot be recovered by normalization,
// such as a quiz worth zero points or category weights outside [0, 100].
type ConfigurationError struct {
	Setting string `json:"setting"`
	Message string `json:"message"`
}

func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", ce.Setting, ce.Message)
}

func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// UnsupportedOperationError is returned when an operation does not apply to the subject,
// e.g. auto-grading a short-answer question.
type UnsupportedOperationError struct {
	Operation string `json:"operation"`
	Subject   string `json:"subject"`
}

func (ue *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s on %s", ue.Operation, ue.Subject)
}

func NewUnsupportedOperationError(operation, subject string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: operation, Subject: subject}
}

// IsValidation reports whether err is, or wraps, a ValidationError or ValidationErrors.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var ves ValidationErrors
	return errors.As(err, &ves)
}

func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsUnsupported(err error) bool {
	var ue *UnsupportedOperationError
	return errors.As(err, &ue)
}
