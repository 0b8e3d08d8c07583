// Package errors provides structured error handling with machine-readable
// codes that map onto HTTP statuses at the transport boundary.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Auth errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"

	// Validation errors
	CodeInvalidFilename Code = "INVALID_FILENAME"
	CodeInvalidBody     Code = "INVALID_BODY"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeScanTimeout      Code = "SCAN_TIMEOUT"

	// Graph completion errors
	CodeStubCompletionFailed Code = "STUB_COMPLETION_FAILED"
)

// HTTPStatus maps an error code to its HTTP response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidFilename, CodeInvalidBody, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStoreUnavailable, CodeScanTimeout, CodeStubCompletionFailed, CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
