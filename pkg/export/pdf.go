package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// column widths in mm, summing to the printable A4 width.
var incidentColWidths = []float64{24, 14, 40, 40, 22, 50}

// PDFRenderer renders incident logs into a tabular PDF.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates a PDF document with the log title and one row per incident.
func (e *PDFRenderer) Render(log IncidentLog) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if log.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, log.Title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range incidentHeaders {
		pdf.CellFormat(incidentColWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range log.Rows {
		for i, value := range row.record() {
			pdf.CellFormat(incidentColWidths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
