// Package export turns portal records into printable documents. Builders
// produce a Document; RenderDocx and RenderPDF lay it out.
package export

import (
	"html"
	"regexp"
	"strings"
	"time"
)

type Document struct {
	Title     string
	Subtitle  string
	Landscape bool
	Blocks    []Block
}

// Block is one vertical piece of a document. Exactly one of its content
// fields is expected to be set; an empty Block renders as a blank line.
type Block struct {
	Heading string
	Field   *Field
	Text    string
	Italic  bool
	Bullets []string
	Table   *Table
}

type Field struct {
	Label string
	Value string
}

type Table struct {
	Header []string
	Rows   [][]string
	// Widths are relative column weights; nil means equal columns.
	Widths []float64
}

func (d *Document) heading(s string) {
	d.Blocks = append(d.Blocks, Block{Heading: s})
}

func (d *Document) field(label, value string) {
	d.Blocks = append(d.Blocks, Block{Field: &Field{Label: label, Value: value}})
}

func (d *Document) text(s string) {
	d.Blocks = append(d.Blocks, Block{Text: s})
}

func (d *Document) bullets(items []string) {
	if items == nil {
		items = []string{}
	}
	d.Blocks = append(d.Blocks, Block{Bullets: items})
}

func (d *Document) table(t Table) {
	d.Blocks = append(d.Blocks, Block{Table: &t})
}

func (d *Document) spacer() {
	d.Blocks = append(d.Blocks, Block{})
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>?`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
)

// StripHTML drops markup from rich-text fields and unescapes entities.
func StripHTML(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n").Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(spacePattern.ReplaceAllString(l, " "))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

var bulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// ShortDate formats like the id-ID locale default, e.g. 7/3/2025.
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2/1/2006")
}

// LongDate formats like 07 Maret 2025.
func LongDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02") + " " + bulan[t.Month()-1] + " " + t.Format("2006")
}

// Filename builds a download name from a prefix and a free-text label.
func Filename(prefix, label, ext string) string {
	label = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(label))
	if label == "" {
		label = "dokumen"
	}
	return prefix + "-" + label + "." + ext
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
