package printing

// PaperSize represents the physical sheet an export is laid out on
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeA5     PaperSize = "A5"     // 148mm x 210mm
	PaperSizeLetter PaperSize = "LETTER" // 216mm x 279mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeLetter:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the portrait width and height in millimeters
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperSizeA5:
		return 148, 210
	case PaperSizeLetter:
		return 215.9, 279.4
	default:
		return 210, 297
	}
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{PaperSizeA4, PaperSizeA5, PaperSizeLetter}
}

// ExportFormat is the kind of artifact an export produces
type ExportFormat string

const (
	ExportFormatPDF   ExportFormat = "PDF"   // downloadable PDF
	ExportFormatImage ExportFormat = "IMAGE" // single PNG, pages stacked
	ExportFormatPrint ExportFormat = "PRINT" // print-ready PDF handed to the print pipeline
)

// IsValid checks if the ExportFormat is a valid value
func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportFormatPDF, ExportFormatImage, ExportFormatPrint:
		return true
	}
	return false
}

// String returns the string representation of ExportFormat
func (f ExportFormat) String() string {
	return string(f)
}

// ContentType returns the MIME type of the artifact
func (f ExportFormat) ContentType() string {
	if f == ExportFormatImage {
		return "image/png"
	}
	return "application/pdf"
}

// Extension returns the file extension including the dot
func (f ExportFormat) Extension() string {
	if f == ExportFormatImage {
		return ".png"
	}
	return ".pdf"
}

// JobStatus represents the status of an export job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRendering JobStatus = "RENDERING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRendering, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can move to target
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusRendering || target == JobStatusFailed
	case JobStatusRendering:
		return target == JobStatusCompleted || target == JobStatusFailed
	}
	return false
}
