package printing

import (
	"context"
	"errors"
)

// Error codes for rendering and export failures
const (
	ErrCodeRasterFailed    = "RASTER_FAILED"
	ErrCodeAssemblyFailed  = "ASSEMBLY_FAILED"
	ErrCodeExportCancelled = "EXPORT_CANCELLED"
	ErrCodeRenderTimeout   = "RENDER_TIMEOUT"
	ErrCodePrintFailed     = "PRINT_FAILED"
	ErrCodeBinaryNotFound  = "BINARY_NOT_FOUND"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
)

// RenderError is a fatal failure of one export stage
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the RenderError code in err's chain, or ""
func ErrorCode(err error) string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// contextError maps a finished context to EXPORT_CANCELLED or RENDER_TIMEOUT
func contextError(ctx context.Context, stage string) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return NewRenderError(ErrCodeRenderTimeout, stage+" timed out", err)
	default:
		return NewRenderError(ErrCodeExportCancelled, stage+" was cancelled", err)
	}
}
