// errors.go - Structured error types for the conversion core
package convert

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a fatal conversion error.
type ErrorCode string

const (
	// CodeInputFormat means the input bytes are not a usable Gliffy
	// document (invalid JSON or missing stage/pages).
	CodeInputFormat ErrorCode = "INPUT_FORMAT"
	// CodeOverrideConfig means the override side-file exists but could
	// not be parsed.
	CodeOverrideConfig ErrorCode = "OVERRIDE_CONFIG"
)

// ConversionError is a fatal, document-level failure. Per-object
// problems are reported as warnings on the result instead.
type ConversionError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *ConversionError) Unwrap() error { return e.Err }

// NewInputFormatError creates an input-format error.
func NewInputFormatError(message string, cause error) *ConversionError {
	return &ConversionError{Code: CodeInputFormat, Message: message, Err: cause}
}

// NewOverrideConfigError creates an override side-file error.
func NewOverrideConfigError(message string, cause error) *ConversionError {
	return &ConversionError{Code: CodeOverrideConfig, Message: message, Err: cause}
}

// IsInputFormatError reports whether err is a CodeInputFormat failure.
func IsInputFormatError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce) && ce.Code == CodeInputFormat
}

// IsOverrideConfigError reports whether err is a CodeOverrideConfig failure.
func IsOverrideConfigError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce) && ce.Code == CodeOverrideConfig
}
