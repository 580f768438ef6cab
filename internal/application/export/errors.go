package export

import (
	"errors"
	"fmt"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// CodeExportFailed is used when a failure carries no more specific code
const CodeExportFailed = "EXPORT_FAILED"

// ExportFailedError is the one failure outcome of an export call.
// No artifact was produced and the job, when one exists, is marked failed.
type ExportFailedError struct {
	JobID  uuid.UUID
	Format printing.ExportFormat
	Code   string
	Cause  error
}

func (e *ExportFailedError) Error() string {
	return fmt.Sprintf("%s export failed [%s]: %v", e.Format, e.Code, e.Cause)
}

func (e *ExportFailedError) Unwrap() error {
	return e.Cause
}

// UserMessage is the caller-facing description of the failure
func (e *ExportFailedError) UserMessage() string {
	return userMessage(e.Code)
}

// newExportFailed picks the most specific code carried by cause
func newExportFailed(jobID uuid.UUID, format printing.ExportFormat, cause error) *ExportFailedError {
	code := CodeExportFailed
	if c := infra.ErrorCode(cause); c != "" {
		code = c
	} else {
		var domainErr *shared.DomainError
		if errors.As(cause, &domainErr) {
			code = domainErr.Code
		}
	}
	return &ExportFailedError{JobID: jobID, Format: format, Code: code, Cause: cause}
}

// userMessage is the message stored on a failed job
func userMessage(code string) string {
	switch code {
	case infra.ErrCodeRasterFailed:
		return "A page could not be rendered."
	case infra.ErrCodeAssemblyFailed:
		return "Rendered pages could not be assembled into the artifact."
	case infra.ErrCodeExportCancelled:
		return "The export was cancelled."
	case infra.ErrCodeRenderTimeout:
		return "The export timed out."
	case infra.ErrCodePrintFailed, infra.ErrCodeBinaryNotFound:
		return "The print pipeline is unavailable. Please try again later."
	case infra.ErrCodeStorageFailed:
		return "The print file could not be saved. Please try again later."
	}
	return "Export failed. Please try again later."
}
