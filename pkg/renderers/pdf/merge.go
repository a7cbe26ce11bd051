package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
)

const (
	pageBox      = "/MediaBox"
	headerWindow = 1024
)

var errNotPDF = errors.New("missing %PDF- header")

// Merger joins PDF files page by page.
type Merger struct{}

var _ document.Merger = Merger{}

// NewMerger returns a PDF merger.
func NewMerger() Merger {
	return Merger{}
}

// Merge implements document.Merger.
func (Merger) Merge(ctx context.Context, cover, body []byte) ([]byte, error) {
	return Merge(ctx, cover, body)
}

// Merge copies every page of cover and then every page of body into a new
// PDF, keeping each page's size and the original order. Inputs that cannot
// be read as PDF yield a *form.ParseError naming the input.
func Merge(ctx context.Context, cover, body []byte) ([]byte, error) {
	if err := checkHeader("cover", cover); err != nil {
		return nil, err
	}
	if err := checkHeader("attachment", body); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	importer := gofpdi.NewImporter()

	// The importer keys its readers by stream address, so both streams
	// share one backing array and stay distinct for the whole merge.
	streams := []io.ReadSeeker{bytes.NewReader(cover), bytes.NewReader(body)}
	if err := importAll(ctx, pdf, importer, "cover", &streams[0]); err != nil {
		return nil, err
	}
	if err := importAll(ctx, pdf, importer, "attachment", &streams[1]); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: write merged document: %w", err)
	}
	return buf.Bytes(), nil
}

// importAll appends every page of data to pdf. The importer panics on
// malformed input, which is reported as a parse error of source.
func importAll(ctx context.Context, pdf *gofpdf.Fpdf, importer *gofpdi.Importer, source string, rs *io.ReadSeeker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &form.ParseError{Source: source, Err: fmt.Errorf("%v", r)}
		}
	}()

	first := importer.ImportPageFromStream(pdf, rs, 1, pageBox)
	sizes := importer.GetPageSizes()
	if len(sizes) == 0 {
		return &form.ParseError{Source: source, Err: errors.New("document has no pages")}
	}

	for page := 1; page <= len(sizes); page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tpl := first
		if page > 1 {
			tpl = importer.ImportPageFromStream(pdf, rs, page, pageBox)
		}
		box := sizes[page][pageBox]
		w, h := box["w"], box["h"]
		if w <= 0 || h <= 0 {
			return &form.ParseError{Source: source, Err: fmt.Errorf("page %d has no media box", page)}
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	}
	return pdf.Error()
}

func checkHeader(source string, data []byte) error {
	if len(data) == 0 {
		return &form.ParseError{Source: source, Err: errors.New("document is empty")}
	}
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return &form.ParseError{Source: source, Err: errNotPDF}
	}
	return nil
}
