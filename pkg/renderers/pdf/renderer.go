// Package pdf lays document trees out as A4 PDF files with gofpdf and merges
// PDF files page by page with the gofpdi importer.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/goliatone/go-iedform/pkg/document"
)

const (
	name        = document.RendererPDF
	contentType = "application/pdf"

	fontFamily = "Helvetica"
	lineHeight = 6.0
	labelWidth = 50.0
	margin     = 15.0
)

type rgb struct{ r, g, b int }

var (
	highlightColors = map[document.Highlight]rgb{
		document.HighlightHome:       {147, 245, 123},
		document.HighlightSigma:      {147, 245, 123},
		document.HighlightThirdParty: {123, 227, 245},
		document.HighlightProtocol:   {245, 237, 123},
	}
	accentColor = rgb{0, 130, 66}
	headerFill  = rgb{230, 230, 230}
	textColor   = rgb{0, 0, 0}
)

// Renderer renders document trees to PDF.
type Renderer struct {
	orientation string
	size        string
}

// Option customises the renderer.
type Option func(*Renderer)

// WithPageSize overrides the A4 portrait default.
func WithPageSize(orientation, size string) Option {
	return func(r *Renderer) {
		if orientation != "" {
			r.orientation = orientation
		}
		if size != "" {
			r.size = size
		}
	}
}

// New constructs a PDF renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{orientation: "P", size: "A4"}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var _ document.Renderer = (*Renderer)(nil)

func (r *Renderer) Name() string        { return name }
func (r *Renderer) ContentType() string { return contentType }
func (r *Renderer) Extension() string   { return "pdf" }

// Render lays doc out and returns the PDF bytes.
func (r *Renderer) Render(ctx context.Context, doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("pdf: document is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New(r.orientation, "mm", r.size, "")
	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+10)
	pdf.SetTitle(doc.Meta.Title, true)
	pdf.SetAuthor(doc.Meta.Author, true)
	pdf.SetSubject(doc.Meta.Subject, true)
	pdf.SetCreator("iedform", true)
	pdf.SetKeywords(doc.Meta.ID, true)
	if !doc.Meta.CreatedAt.IsZero() {
		pdf.SetCreationDate(doc.Meta.CreatedAt)
	}
	pdf.AliasNbPages("")
	pdf.SetHeaderFunc(func() { l.header(doc.Header) })
	pdf.SetFooterFunc(func() { l.footer(doc.Footer) })

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		if page.Title != "" {
			l.title(page.Title)
		}
		for _, section := range page.Sections {
			if section.BreakBefore {
				pdf.AddPage()
			}
			l.section(section)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: write document: %w", err)
	}
	return buf.Bytes(), nil
}

type layout struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (l *layout) contentWidth() float64 {
	w, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	return w - left - right
}

func (l *layout) header(text string) {
	if text == "" {
		return
	}
	l.pdf.SetFont(fontFamily, "B", 16)
	l.setText(textColor)
	l.pdf.CellFormat(0, 10, l.tr(text), "B", 1, "C", false, 0, "")
	l.pdf.Ln(4)
}

func (l *layout) footer(f document.Footer) {
	l.pdf.SetY(-margin - 5)
	l.pdf.SetFont(fontFamily, "I", 8)
	l.setText(textColor)
	if f.Note != "" {
		l.pdf.CellFormat(0, 5, l.tr(f.Note), "T", 1, "C", false, 0, "")
	}
	if f.PageNumbers {
		l.pdf.CellFormat(0, 5, fmt.Sprintf("%d / {nb}", l.pdf.PageNo()), "", 0, "C", false, 0, "")
	}
}

func (l *layout) title(text string) {
	l.pdf.SetFont(fontFamily, "B", 14)
	l.setText(textColor)
	l.pdf.CellFormat(0, 9, l.tr(text), "", 1, "L", false, 0, "")
	l.pdf.Ln(2)
}

func (l *layout) section(s document.Section) {
	if s.Title != "" {
		l.pdf.SetFont(fontFamily, "B", 12)
		if s.Accent {
			l.setText(accentColor)
		}
		l.pdf.CellFormat(0, 8, l.tr(s.Title), "B", 1, "L", false, 0, "")
		l.setText(textColor)
		l.pdf.Ln(2)
	}
	for _, block := range s.Blocks {
		switch b := block.(type) {
		case document.Fields:
			l.fields(b)
		case document.Table:
			l.table(b)
		case document.Paragraph:
			l.paragraph(b)
		}
	}
	l.pdf.Ln(4)
}

func (l *layout) fields(f document.Fields) {
	valueWidth := l.contentWidth() - labelWidth
	for _, row := range f.Rows {
		fill := l.setFill(row.Highlight)
		l.pdf.SetFont(fontFamily, "B", 10)
		l.pdf.CellFormat(labelWidth, lineHeight, l.tr(row.Label+":"), "", 0, "L", fill, 0, "")
		l.pdf.SetFont(fontFamily, "", 10)
		l.pdf.MultiCell(valueWidth, lineHeight, l.tr(row.Value), "", "L", fill)
	}
}

func (l *layout) paragraph(p document.Paragraph) {
	l.pdf.SetFont(fontFamily, "", 10)
	l.pdf.MultiCell(0, lineHeight, l.tr(p.Text), "", "L", false)
}

// table draws a bordered grid. Rows grow to fit wrapped text and the header
// row is repeated after a page break.
func (l *layout) table(t document.Table) {
	if len(t.Columns) == 0 {
		return
	}
	colWidth := l.contentWidth() / float64(len(t.Columns))
	header := make([]document.Cell, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = document.Cell{Text: c}
	}
	if l.needsBreak(2 * lineHeight) {
		l.pdf.AddPage()
	}
	l.row(header, colWidth, true)
	for _, row := range t.Rows {
		if l.needsBreak(l.rowHeight(row, colWidth)) {
			l.pdf.AddPage()
			l.row(header, colWidth, true)
		}
		l.row(row, colWidth, false)
	}
}

func (l *layout) rowHeight(row []document.Cell, colWidth float64) float64 {
	lines := 1
	for _, c := range row {
		n := len(l.pdf.SplitLines([]byte(l.tr(c.Text)), colWidth-2))
		if n > lines {
			lines = n
		}
	}
	return float64(lines) * lineHeight
}

func (l *layout) needsBreak(h float64) bool {
	_, pageHeight := l.pdf.GetPageSize()
	_, _, _, bottom := l.pdf.GetMargins()
	return l.pdf.GetY()+h > pageHeight-bottom
}

func (l *layout) row(cells []document.Cell, colWidth float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	l.pdf.SetFont(fontFamily, style, 9)
	h := l.rowHeight(cells, colWidth)
	x, y := l.pdf.GetXY()
	for i, c := range cells {
		cx := x + float64(i)*colWidth
		var fill bool
		if header {
			l.pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
			fill = true
		} else {
			fill = l.setFill(c.Highlight)
		}
		drawStyle := "D"
		if fill {
			drawStyle = "FD"
		}
		l.pdf.Rect(cx, y, colWidth, h, drawStyle)
		l.pdf.SetXY(cx+1, y)
		l.pdf.MultiCell(colWidth-2, lineHeight, l.tr(c.Text), "", "L", false)
	}
	l.pdf.SetXY(x, y+h)
}

func (l *layout) setFill(h document.Highlight) bool {
	c, ok := highlightColors[h]
	if !ok {
		return false
	}
	l.pdf.SetFillColor(c.r, c.g, c.b)
	return true
}

func (l *layout) setText(c rgb) {
	l.pdf.SetTextColor(c.r, c.g, c.b)
}
