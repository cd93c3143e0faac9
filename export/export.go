// Package export renders compliance reports into downloadable documents.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"daritana-compliance/models"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a report document format
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatExcel    Format = "excel"
	FormatPDF      Format = "pdf"
)

// DefaultFormat is used when no format is requested
const DefaultFormat = FormatPDF

// ParseFormat resolves a requested format name, accepting common aliases
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultFormat, nil
	case "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx", "xls":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension of the format, with the dot
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatExcel:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	}
	return ".bin"
}

// Artifact is a rendered report document
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Render writes the report to w in the given format
func Render(w io.Writer, report *models.ComplianceReport, format Format) error {
	switch format {
	case FormatText:
		return renderText(w, report)
	case FormatMarkdown:
		return renderMarkdown(w, report)
	case FormatJSON:
		return renderJSON(w, report)
	case FormatCSV:
		return renderCSV(w, report)
	case FormatExcel:
		return renderExcel(w, report)
	case FormatPDF:
		return renderPDF(w, report)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Build renders the report into an in-memory artifact
func Build(report *models.ComplianceReport, format Format) (*Artifact, error) {
	var buf bytes.Buffer
	if err := Render(&buf, report, format); err != nil {
		return nil, err
	}
	return &Artifact{
		Filename:    Filename(report, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Filename returns the download name for a report artifact
func Filename(report *models.ComplianceReport, format Format) string {
	return fmt.Sprintf("compliance-report-%s-%s%s",
		report.GeneratedAt.UTC().Format("20060102"),
		report.ID.String()[:8],
		format.Extension(),
	)
}
