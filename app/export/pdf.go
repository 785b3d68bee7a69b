package export

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
	pdfCellLine   = 4.5
	pdfMargin     = 15.0
)

// RenderPDF writes d as an A4 PDF. Core fonts only cover cp1252, text is
// translated accordingly.
func RenderPDF(w io.Writer, d Document) error {
	orientation := "P"
	if d.Landscape {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	if d.Title != "" {
		pdf.SetFont(pdfFont, "B", 15)
		pdf.MultiCell(contentW, 8, tr(d.Title), "", "C", false)
	}
	if d.Subtitle != "" {
		pdf.SetFont(pdfFont, "B", 12)
		pdf.MultiCell(contentW, 7, tr(d.Subtitle), "", "C", false)
	}
	if d.Title != "" || d.Subtitle != "" {
		pdf.Ln(pdfLineHeight)
	}

	for _, b := range d.Blocks {
		switch {
		case b.Heading != "":
			pdf.SetFont(pdfFont, "B", 11)
			pdf.MultiCell(contentW, pdfLineHeight, tr(b.Heading), "", "L", false)
		case b.Field != nil:
			pdf.SetFont(pdfFont, "B", 10)
			label := tr(b.Field.Label + ": ")
			pdf.CellFormat(pdf.GetStringWidth(label)+1, pdfLineHeight, label, "", 0, "L", false, 0, "")
			pdf.SetFont(pdfFont, "", 10)
			pdf.MultiCell(0, pdfLineHeight, tr(b.Field.Value), "", "L", false)
		case b.Text != "":
			style := ""
			if b.Italic {
				style = "I"
			}
			pdf.SetFont(pdfFont, style, 10)
			pdf.MultiCell(contentW, pdfLineHeight, tr(b.Text), "", "L", false)
		case b.Bullets != nil:
			pdf.SetFont(pdfFont, "", 10)
			if len(b.Bullets) == 0 {
				pdf.MultiCell(contentW, pdfLineHeight, "-", "", "L", false)
			}
			for _, item := range b.Bullets {
				pdf.MultiCell(contentW, pdfLineHeight, tr("- "+item), "", "L", false)
			}
		case b.Table != nil:
			pdfTable(pdf, tr, contentW, *b.Table)
		default:
			pdf.Ln(pdfLineHeight / 2)
		}
	}

	return errors.Wrap(pdf.Output(w), "write pdf")
}

func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, contentW float64, t Table) {
	widths := columnWidths(contentW, len(t.Header), t.Widths)

	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdfRow(pdf, tr, widths, t.Header, true)

	pdf.SetFont(pdfFont, "", 9)
	for _, row := range t.Rows {
		pdfRow(pdf, tr, widths, row, false)
	}
	pdf.Ln(pdfLineHeight / 2)
}

// pdfRow draws one row whose height fits its tallest cell, breaking the
// page first when the row would not fit.
func pdfRow(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cells []string, fill bool) {
	lines := make([][]string, len(widths))
	maxLines := 1
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = tr(cells[i])
		}
		var split []string
		for _, para := range strings.Split(text, "\n") {
			split = append(split, pdf.SplitText(para, w-2)...)
		}
		if len(split) == 0 {
			split = []string{""}
		}
		lines[i] = split
		if len(split) > maxLines {
			maxLines = len(split)
		}
	}
	h := float64(maxLines)*pdfCellLine + 2

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-pdfMargin {
		pdf.AddPage()
	}

	x, y := pdf.GetX(), pdf.GetY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, w := range widths {
		pdf.Rect(x, y, w, h, style)
		for j, line := range lines[i] {
			pdf.SetXY(x+1, y+1+float64(j)*pdfCellLine)
			pdf.CellFormat(w-2, pdfCellLine, line, "", 0, "L", false, 0, "")
		}
		x += w
	}
	pdf.SetXY(pdfMargin, y+h)
}

func columnWidths(total float64, n int, weights []float64) []float64 {
	widths := make([]float64, n)
	if len(weights) != n {
		for i := range widths {
			widths[i] = total / float64(n)
		}
		return widths
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	for i, w := range weights {
		widths[i] = total * w / sum
	}
	return widths
}
