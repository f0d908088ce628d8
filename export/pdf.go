package export

import (
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/ikasoba/notebox/core"
)

// PDF writes one page run per note using the core Helvetica font. Text
// outside cp1252 is replaced.
func PDF(w io.Writer, notes ...*core.Note) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, n := range notes {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 9, tr(n.Title), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, n.UpdatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 6, tr(n.PlainTextContent), "", "L", false)
	}

	return pdf.Output(w)
}
