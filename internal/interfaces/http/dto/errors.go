package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidDocument is used when an invoice document is structurally invalid
	ErrCodeInvalidDocument = "ERR_INVALID_DOCUMENT"
	// ErrCodeDuplicateHSN is used when the tax breakdown repeats an HSN/SAC code
	ErrCodeDuplicateHSN = "ERR_DUPLICATE_HSN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeExportInProgress is used when the same invoice is already being exported
	ErrCodeExportInProgress = "ERR_EXPORT_IN_PROGRESS"
)

// Export error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeFormatUnavailable is used when an export format is not configured
	ErrCodeFormatUnavailable = "ERR_FORMAT_UNAVAILABLE"
	// ErrCodeExportFailed is used when an export produced no artifact
	ErrCodeExportFailed = "ERR_EXPORT_FAILED"
	// ErrCodeExportCancelled is used when the client went away mid export
	ErrCodeExportCancelled = "ERR_EXPORT_CANCELLED"
	// ErrCodeExportTimeout is used when an export ran past its deadline
	ErrCodeExportTimeout = "ERR_EXPORT_TIMEOUT"
	// ErrCodePrintUnavailable is used when the print pipeline cannot run
	ErrCodePrintUnavailable = "ERR_PRINT_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidDocument: http.StatusBadRequest,
	ErrCodeDuplicateHSN:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeExportInProgress:    http.StatusConflict,

	// Export errors
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeFormatUnavailable: http.StatusNotImplemented,
	ErrCodeExportFailed:      http.StatusInternalServerError,
	ErrCodeExportCancelled:   499,
	ErrCodeExportTimeout:     http.StatusGatewayTimeout,
	ErrCodePrintUnavailable:  http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain and render error codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INVALID_FORMAT":       ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"INVALID_DOCUMENT":     ErrCodeInvalidDocument,
	"DUPLICATE_HSN":        ErrCodeDuplicateHSN,
	"EXPORT_IN_PROGRESS":   ErrCodeExportInProgress,
	"FORMAT_UNAVAILABLE":   ErrCodeFormatUnavailable,
	"RASTER_FAILED":        ErrCodeExportFailed,
	"ASSEMBLY_FAILED":      ErrCodeExportFailed,
	"STORAGE_FAILED":       ErrCodeExportFailed,
	"EXPORT_FAILED":        ErrCodeExportFailed,
	"EXPORT_CANCELLED":     ErrCodeExportCancelled,
	"RENDER_TIMEOUT":       ErrCodeExportTimeout,
	"PRINT_FAILED":         ErrCodePrintUnavailable,
	"BINARY_NOT_FOUND":     ErrCodePrintUnavailable,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
