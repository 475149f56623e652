package apperr

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"amfilter/internal/config"
	"amfilter/internal/datefilter"
	"amfilter/internal/unpacker"

	"github.com/jessevdk/go-flags"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeUsage         ErrorType = "usage"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInput         ErrorType = "input"
	ErrorTypeFileIO        ErrorType = "file_io"
	ErrorTypeInternal      ErrorType = "internal"
)

// ErrorResponse represents a categorised error ready for display
type ErrorResponse struct {
	Type        ErrorType
	Code        string
	Title       string
	Details     string
	Suggestions []string
}

// CategorizeError analyzes an error and returns an appropriate ErrorResponse
func CategorizeError(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{
			Type:    ErrorTypeInternal,
			Code:    "unknown_error",
			Title:   "Unknown error",
			Details: "No error details available",
		}
	}

	errMsg := err.Error()

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		return ErrorResponse{
			Type:    ErrorTypeUsage,
			Code:    "invalid_arguments",
			Title:   "Invalid command line",
			Details: errMsg,
			Suggestions: []string{
				"Run with --help to list commands and options",
			},
		}
	}

	if errors.Is(err, config.ErrInvalidConfig) {
		return ErrorResponse{
			Type:    ErrorTypeConfiguration,
			Code:    "invalid_config",
			Title:   "Invalid configuration",
			Details: errMsg,
			Suggestions: []string{
				"Check the keys and values of the file given with --config",
				"Make sure MinSize is not greater than MaxSize",
			},
		}
	}

	if errors.Is(err, datefilter.ErrNoValidDates) {
		return ErrorResponse{
			Type:    ErrorTypeInput,
			Code:    "no_valid_dates",
			Title:   "No usable dates",
			Details: errMsg,
			Suggestions: []string{
				"Input lines must look like DD/MM/YYYY,HH:MM",
				"Dates later than the current year are ignored",
			},
		}
	}

	if errors.Is(err, unpacker.ErrMalformedRecord) {
		return ErrorResponse{
			Type:    ErrorTypeInput,
			Code:    "malformed_record",
			Title:   "Malformed record",
			Details: errMsg,
			Suggestions: []string{
				"Check the query output was not truncated or reformatted",
				"Use --skip-malformed to report bad records and carry on",
			},
		}
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorResponse{
			Type:    ErrorTypeFileIO,
			Code:    "file_access_error",
			Title:   "File access failed",
			Details: errMsg,
			Suggestions: []string{
				"Check the path exists and is readable",
			},
		}
	}

	// Default fallback for unrecognized errors
	return ErrorResponse{
		Type:    ErrorTypeInternal,
		Code:    "processing_error",
		Title:   "Processing failed",
		Details: errMsg,
	}
}

// ExitCode maps an error category to a process exit status
func ExitCode(resp ErrorResponse) int {
	switch resp.Type {
	case ErrorTypeUsage, ErrorTypeConfiguration:
		return 2
	default:
		return 1
	}
}

// WriteError prints a categorised error and returns the exit status to use
func WriteError(w io.Writer, err error) int {
	resp := CategorizeError(err)

	fmt.Fprintf(w, "error: %s: %s\n", resp.Title, resp.Details)

	for _, suggestion := range resp.Suggestions {
		fmt.Fprintf(w, "  hint: %s\n", suggestion)
	}

	return ExitCode(resp)
}
