package export

import (
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/pkg/errors"
)

const (
	docxTitleSize    = "32"
	docxSubtitleSize = "26"
)

// RenderDocx writes d as a Word document.
func RenderDocx(w io.Writer, d Document) error {
	doc := docx.New().WithDefaultTheme()

	if d.Title != "" {
		doc.AddParagraph().Justification("center").AddText(d.Title).Bold().Size(docxTitleSize)
	}
	if d.Subtitle != "" {
		doc.AddParagraph().Justification("center").AddText(d.Subtitle).Bold().Size(docxSubtitleSize)
	}
	if d.Title != "" || d.Subtitle != "" {
		doc.AddParagraph()
	}

	for _, b := range d.Blocks {
		switch {
		case b.Heading != "":
			doc.AddParagraph().AddText(b.Heading).Bold()
		case b.Field != nil:
			p := doc.AddParagraph()
			p.AddText(b.Field.Label + ": ").Bold()
			p.AddText(b.Field.Value)
		case b.Text != "":
			for _, line := range strings.Split(b.Text, "\n") {
				r := doc.AddParagraph().AddText(line)
				if b.Italic {
					r.Italic()
				}
			}
		case b.Bullets != nil:
			if len(b.Bullets) == 0 {
				doc.AddParagraph().AddText("-")
			}
			for _, item := range b.Bullets {
				doc.AddParagraph().AddText("- " + item)
			}
		case b.Table != nil:
			addDocxTable(doc, *b.Table)
		default:
			doc.AddParagraph()
		}
	}

	_, err := doc.WriteTo(w)
	return errors.Wrap(err, "write docx")
}

func addDocxTable(doc *docx.Docx, t Table) {
	tbl := doc.AddTable(len(t.Rows)+1, len(t.Header), 0, nil)
	for y, h := range t.Header {
		tbl.TableRows[0].TableCells[y].AddParagraph().AddText(h).Bold()
	}
	for x, row := range t.Rows {
		cells := tbl.TableRows[x+1].TableCells
		for y := range cells {
			if y < len(row) {
				cells[y].AddParagraph().AddText(row[y])
			}
		}
	}
}
