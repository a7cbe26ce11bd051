package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
)

func sampleDocument() *document.Document {
	return &document.Document{
		Meta:   document.Meta{ID: "doc-1", Title: "Requisição de Aplicação", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		Header: "Requisição de Aplicação",
		Footer: document.Footer{PageNumbers: true},
		Pages: []document.Page{
			{Sections: []document.Section{
				{Title: "Informações Gerais", Blocks: []document.Block{document.Fields{Rows: []document.Field{
					{Label: "Cliente", Value: "Companhia Energética"},
					{Label: "Conexão Sigma", Value: "Direta", Highlight: document.HighlightSigma},
				}}}},
				{Title: "Comentários", Blocks: []document.Block{document.Paragraph{Text: "Sem observações."}}},
			}},
			{Title: "Detalhes das Entradas", Sections: []document.Section{
				{Title: "Entrada 1", Accent: true, Blocks: []document.Block{document.Table{
					Columns: []string{"Nome", "Fabricante"},
					Rows: [][]document.Cell{
						{{Text: "TM1"}, {Text: "Treetech", Highlight: document.HighlightHome}},
						{{Text: "SEL-2414"}, {Text: "SEL", Highlight: document.HighlightThirdParty}},
					},
				}}},
				{Title: "Entrada 2", Accent: true, BreakBefore: true},
			}},
		},
	}
}

func pageSizes(t *testing.T, data []byte) map[int]map[string]map[string]float64 {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	importer := gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(data)
	importer.ImportPageFromStream(pdf, &rs, 1, pageBox)
	return importer.GetPageSizes()
}

func render(t *testing.T, doc *document.Document) []byte {
	t.Helper()
	data, err := New().Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return data
}

func TestRenderer_Metadata(t *testing.T) {
	r := New()
	if r.Name() != "pdf" || r.ContentType() != "application/pdf" || r.Extension() != "pdf" {
		t.Fatalf("unexpected renderer identity: %s %s %s", r.Name(), r.ContentType(), r.Extension())
	}
}

func TestRenderer_Render(t *testing.T) {
	data := render(t, sampleDocument())
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:8])
	}
	if got := len(pageSizes(t, data)); got != 3 {
		t.Fatalf("expected 3 pages (two pages plus one section break), got %d", got)
	}
}

func TestRenderer_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, sampleDocument()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderer_NilDocument(t *testing.T) {
	if _, err := New().Render(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func bodyPDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 10, "body page 1")
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: 100, Ht: 150})
	pdf.Cell(0, 10, "body page 2")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("body: %v", err)
	}
	return buf.Bytes()
}

func TestMerge_CoverFirstKeepsBodyOrderAndSizes(t *testing.T) {
	cover := render(t, &document.Document{
		Header: "Requisição de Homologação",
		Footer: document.Footer{Note: "Essa folha apresenta informações relativas ao pedido de Homologação"},
		Pages:  []document.Page{{Sections: []document.Section{{Blocks: []document.Block{document.Paragraph{Text: "capa"}}}}}},
	})
	body := bodyPDF(t)
	bodySizes := pageSizes(t, body)

	merged, err := NewMerger().Merge(context.Background(), cover, body)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	sizes := pageSizes(t, merged)
	if len(sizes) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(sizes))
	}

	coverBox := sizes[1][pageBox]
	if !near(coverBox["w"], 595.28) || !near(coverBox["h"], 841.89) {
		t.Fatalf("cover page should stay A4 portrait, got %v", coverBox)
	}
	for page := 1; page <= 2; page++ {
		want, got := bodySizes[page][pageBox], sizes[page+1][pageBox]
		if !near(want["w"], got["w"]) || !near(want["h"], got["h"]) {
			t.Fatalf("body page %d size changed: want %v got %v", page, want, got)
		}
	}
}

func TestMerge_RejectsInvalidAttachment(t *testing.T) {
	cover := render(t, sampleDocument())
	cases := map[string][]byte{
		"empty":     nil,
		"no header": []byte("just some text"),
		"truncated": []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Merge(context.Background(), cover, body)
			if !errors.Is(err, form.ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			var perr *form.ParseError
			if !errors.As(err, &perr) || perr.Source != "attachment" {
				t.Fatalf("expected attachment parse error, got %#v", err)
			}
		})
	}
}

func TestPipeline_ApprovalEndToEnd(t *testing.T) {
	registry := document.NewRegistry()
	registry.MustRegister(New())
	pipeline, err := document.NewPipeline(registry, document.WithMerger(NewMerger()))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	approval := form.EmptyApproval()
	approval.Name = "SEL-751"
	artifact, err := pipeline.Approval(context.Background(), approval, bodyPDF(t))
	if err != nil {
		t.Fatalf("approval: %v", err)
	}
	if artifact.Name != "sel-751-mapeamento.pdf" || artifact.ContentType != "application/pdf" {
		t.Fatalf("unexpected artifact %s %s", artifact.Name, artifact.ContentType)
	}
	if got := len(pageSizes(t, artifact.Data)); got != 3 {
		t.Fatalf("expected cover plus two body pages, got %d", got)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.5
}
