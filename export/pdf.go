package export

import (
	"io"

	"daritana-compliance/models"

	"github.com/go-pdf/fpdf"
)

// A4 portrait in points
const (
	pdfMargin       = 50
	pdfLeading      = 14
	pdfTitleLeading = 22
	pdfFontFamily   = "Helvetica"
)

func renderPDF(w io.Writer, r *models.ComplianceReport) error {
	return newReportPDF(r).Output(w)
}

// newReportPDF lays out the report body; long lines wrap and pages break
// automatically.
func newReportPDF(r *models.ComplianceReport) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCompression(false)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetTitle("UBBL Compliance Report: "+r.ProjectName, true)
	pdf.SetCreator("daritana-compliance", false)

	// Core fonts draw cp1252; m² and accented project names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	body := lines(r)
	pdf.AddPage()

	pdf.SetFont(pdfFontFamily, "B", 14)
	pdf.MultiCell(0, pdfTitleLeading, tr(body[0]), "", "L", false)

	pdf.SetFont(pdfFontFamily, "", 10)
	for _, line := range body[1:] {
		pdf.MultiCell(0, pdfLeading, tr(line), "", "L", false)
	}
	return pdf
}
