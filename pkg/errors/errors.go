// Package errors defines the categorized error type used across the
// reconciliation toolkit.
//
// Every failure surfaced to the CLI is a *ReconError carrying a category,
// a machine-readable code, an optional suggestion for the operator, and
// free-form context (file paths, line numbers, account names). Categories
// map to process exit codes so batch schedulers can distinguish bad input
// from bad configuration.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryValidation     Category = "validation"
	CategoryConfiguration  Category = "configuration"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"
	CodeFileCorrupted  Code = "file_corrupted"

	// Parse errors
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"
	CodeEncodingError Code = "encoding_error"

	// Validation errors
	CodeInvalidAmount Code = "invalid_amount"
	CodeInvalidDate   Code = "invalid_date"
	CodeMissingField  Code = "missing_field"
	CodeEmptyDataset  Code = "empty_dataset"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"
	CodeMissingConfig Code = "missing_config"

	// Reconciliation errors
	CodeUnknownDomain   Code = "unknown_domain"
	CodeProcessingError Code = "processing_error"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// Context carries additional key/value detail about the error.
type Context map[string]interface{}

// ReconError is the error type produced by every package in this module.
type ReconError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface.
func (e *ReconError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ReconError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code associated with the error category.
func (e *ReconError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a key/value pair to the error.
func (e *ReconError) WithContext(key string, value interface{}) *ReconError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint for the operator.
func (e *ReconError) WithSuggestion(suggestion string) *ReconError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ReconError.
func New(category Category, code Code, message string) *ReconError {
	e := &ReconError{
		Category: category,
		Code:     code,
		Message:  message,
	}
	if tracer, ok := errors.New(message).(stackTracer); ok {
		e.StackTrace = tracer.StackTrace()
	}
	return e
}

// Newf creates a new ReconError with a formatted message.
func Newf(category Category, code Code, format string, args ...interface{}) *ReconError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with category and code.
func Wrap(err error, category Category, code Code, message string) *ReconError {
	if err == nil {
		return nil
	}
	e := &ReconError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    err,
	}
	if tracer, ok := errors.WithStack(err).(stackTracer); ok {
		e.StackTrace = tracer.StackTrace()
	}
	return e
}

// FileError builds a file-related error for the given path.
func FileError(code Code, path string, err error) *ReconError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check the data directory and file name"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied reading file: %s", path)
		suggestion = "check file permissions"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "verify the file is readable and not corrupted"
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// ParseError builds a parse error pointing at a file location.
func ParseError(code Code, file string, line int, column, value string, err error) *ReconError {
	var message, suggestion string
	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in file %s at line %d", file, line)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "correct the value or remove the row"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format"
	}

	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}
	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column)
}

// ValidationError builds a validation error for a field value.
func ValidationError(code Code, field string, value interface{}, err error) *ReconError {
	var message, suggestion string
	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be decimal numbers like '12.34'"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeEmptyDataset:
		message = fmt.Sprintf("dataset '%s' contains no rows", field)
		suggestion = "check the source file and the reconciliation period"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := New(CategoryValidation, code, message)
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	}
	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError builds a configuration error for a setting.
func ConfigurationError(code Code, setting string, value interface{}, err error) *ReconError {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
	if code == CodeMissingConfig {
		message = fmt.Sprintf("missing required configuration: %s", setting)
	}

	result := New(CategoryConfiguration, code, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	}
	return result.
		WithSuggestion("check the configuration file or command-line flags").
		WithContext("setting", setting)
}

// ReconciliationError builds an error for a failed reconciliation run.
func ReconciliationError(code Code, domain string, err error) *ReconError {
	message := fmt.Sprintf("reconciliation failed for domain %s", domain)
	if code == CodeUnknownDomain {
		message = fmt.Sprintf("unknown reconciliation domain: %s", domain)
	}

	result := New(CategoryReconciliation, code, message)
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	}
	return result.WithContext("domain", domain)
}

// InternalError builds an error for an unexpected internal failure.
func InternalError(operation string, err error) *ReconError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("this is likely a bug, please report it with the error details").
		WithContext("operation", operation)
}

// IsReconError reports whether err is a *ReconError.
func IsReconError(err error) bool {
	_, ok := err.(*ReconError)
	return ok
}

// AsReconError extracts a *ReconError from an error chain.
func AsReconError(err error) (*ReconError, bool) {
	var reconErr *ReconError
	if errors.As(err, &reconErr) {
		return reconErr, true
	}
	return nil, false
}

// Summary aggregates multiple errors for reporting.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	Errors     []*ReconError    `json:"errors"`
}

// NewSummary builds a Summary over the given errors.
func NewSummary(errs []*ReconError) *Summary {
	s := &Summary{
		Total:      len(errs),
		ByCategory: make(map[Category]int),
		Errors:     errs,
	}
	for _, err := range errs {
		s.ByCategory[err.Category]++
	}
	return s
}

// Error returns a one-line description of the summary.
func (s *Summary) Error() string {
	if s.Total == 0 {
		return "no errors"
	}
	if s.Total == 1 {
		return s.Errors[0].Error()
	}
	var parts []string
	for category, count := range s.ByCategory {
		parts = append(parts, fmt.Sprintf("%s: %d", category, count))
	}
	return fmt.Sprintf("%d errors occurred (%s)", s.Total, strings.Join(parts, ", "))
}

// ExitCode returns the highest exit code among the collected errors.
func (s *Summary) ExitCode() int {
	if s.Total == 0 {
		return 0
	}
	max := 1
	for _, err := range s.Errors {
		if code := err.ExitCode(); code > max {
			max = code
		}
	}
	return max
}
