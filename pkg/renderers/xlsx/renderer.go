// Package xlsx renders document trees as Excel workbooks, one sheet per page.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-iedform/pkg/document"
)

const (
	name         = document.RendererXLSX
	contentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet = "Sheet1"
	summaryTitle = "Resumo"
	maxSheetName = 31
)

var highlightColors = map[document.Highlight]string{
	document.HighlightHome:       "93F57B",
	document.HighlightSigma:      "93F57B",
	document.HighlightThirdParty: "7BE3F5",
	document.HighlightProtocol:   "F5ED7B",
}

// Renderer renders document trees to XLSX.
type Renderer struct{}

var _ document.Renderer = Renderer{}

// New constructs an XLSX renderer.
func New() Renderer {
	return Renderer{}
}

func (Renderer) Name() string        { return name }
func (Renderer) ContentType() string { return contentType }
func (Renderer) Extension() string   { return "xlsx" }

// Render writes each page of doc to its own sheet. Section breaks become
// print page breaks.
func (Renderer) Render(ctx context.Context, doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("xlsx: document is required")
	}
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	used := make(map[string]int)
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := sheetName(page, i, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("xlsx: add sheet %q: %w", sheet, err)
		}
		w := &sheetWriter{f: f, sheet: sheet, styles: styles, row: 1}
		if err := w.page(doc, page); err != nil {
			return nil, err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      doc.Meta.Title,
		Subject:    doc.Meta.Subject,
		Creator:    doc.Meta.Author,
		Identifier: doc.Meta.ID,
		Created:    createdAt(doc.Meta.CreatedAt),
	}); err != nil {
		return nil, fmt.Errorf("xlsx: set properties: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func createdAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sheetName derives a unique, valid sheet name from the page title.
func sheetName(page document.Page, index int, used map[string]int) string {
	base := page.Title
	if base == "" && index == 0 {
		base = summaryTitle
	}
	if base == "" {
		base = fmt.Sprintf("Página %d", index+1)
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, base)
	if runes := []rune(base); len(runes) > maxSheetName {
		base = string(runes[:maxSheetName])
	}
	used[base]++
	if n := used[base]; n > 1 {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		return string(runes) + suffix
	}
	return base
}

type styleSet struct {
	title     int
	bold      int
	header    int
	highlight map[document.Highlight]int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	s := &styleSet{highlight: make(map[document.Highlight]int)}
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return nil, fmt.Errorf("xlsx: title style: %w", err)
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, fmt.Errorf("xlsx: bold style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	}); err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}
	for h, color := range highlightColors {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}})
		if err != nil {
			return nil, fmt.Errorf("xlsx: highlight style: %w", err)
		}
		s.highlight[h] = id
	}
	return s, nil
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles *styleSet
	row    int
}

func (w *sheetWriter) page(doc *document.Document, page document.Page) error {
	if doc.Header != "" {
		if err := w.set(1, doc.Header, w.styles.title); err != nil {
			return err
		}
		w.row += 2
	}
	if page.Title != "" {
		if err := w.set(1, page.Title, w.styles.bold); err != nil {
			return err
		}
		w.row += 2
	}
	for _, section := range page.Sections {
		if section.BreakBefore {
			cell, err := excelize.CoordinatesToCellName(1, w.row)
			if err != nil {
				return err
			}
			if err := w.f.InsertPageBreak(w.sheet, cell); err != nil {
				return fmt.Errorf("xlsx: page break: %w", err)
			}
		}
		if err := w.section(section); err != nil {
			return err
		}
	}
	if doc.Footer.Note != "" {
		if err := w.set(1, doc.Footer.Note, 0); err != nil {
			return err
		}
	}
	if err := w.f.SetColWidth(w.sheet, "A", "E", 24); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	return nil
}

func (w *sheetWriter) section(s document.Section) error {
	if s.Title != "" {
		if err := w.set(1, s.Title, w.styles.bold); err != nil {
			return err
		}
		w.row++
	}
	for _, block := range s.Blocks {
		var err error
		switch b := block.(type) {
		case document.Fields:
			err = w.fields(b)
		case document.Table:
			err = w.table(b)
		case document.Paragraph:
			err = w.set(1, b.Text, 0)
			w.row++
		}
		if err != nil {
			return err
		}
	}
	w.row++
	return nil
}

func (w *sheetWriter) fields(f document.Fields) error {
	for _, field := range f.Rows {
		if err := w.set(1, field.Label, w.styles.bold); err != nil {
			return err
		}
		if err := w.set(2, field.Value, w.styles.highlight[field.Highlight]); err != nil {
			return err
		}
		w.row++
	}
	return nil
}

func (w *sheetWriter) table(t document.Table) error {
	for col, title := range t.Columns {
		if err := w.set(col+1, title, w.styles.header); err != nil {
			return err
		}
	}
	w.row++
	for _, row := range t.Rows {
		for col, cell := range row {
			if err := w.set(col+1, cell.Text, w.styles.highlight[cell.Highlight]); err != nil {
				return err
			}
		}
		w.row++
	}
	return nil
}

// set writes value at column col of the current row. Style 0 keeps the
// default style.
func (w *sheetWriter) set(col int, value string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		return fmt.Errorf("xlsx: set %s!%s: %w", w.sheet, cell, err)
	}
	if style != 0 {
		if err := w.f.SetCellStyle(w.sheet, cell, cell, style); err != nil {
			return fmt.Errorf("xlsx: style %s!%s: %w", w.sheet, cell, err)
		}
	}
	return nil
}
