// Package export provides meeting minutes export functionality for PDF and DOCX formats.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	ThreadID            string
	OwnerID             string
	Format              Format
	IncludeActionPoints bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ThreadInfo holds thread metadata for export
type ThreadInfo struct {
	ID        string
	Name      string
	Owner     string
	CreatedAt time.Time
}

// TranscriptInfo holds transcript data for export
type TranscriptInfo struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// ActionPointInfo holds action point data for export
type ActionPointInfo struct {
	Title       string
	IsCompleted bool
}

var (
	// ErrContentUnavailable indicates minutes content could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
