package html

import (
	"github.com/goliatone/go-iedform/pkg/document"
)

// The templates cannot switch on Go types, so blocks are flattened into maps
// tagged with their kind.

func newView(doc *document.Document) map[string]any {
	pages := make([]map[string]any, 0, len(doc.Pages))
	// Section breaks start physical pages too, as in Document.PageCount.
	number := 1
	for _, page := range doc.Pages {
		start := number
		sections := make([]map[string]any, 0, len(page.Sections))
		for _, s := range page.Sections {
			if s.BreakBefore {
				number++
			}
			sections = append(sections, map[string]any{
				"title":  s.Title,
				"accent": s.Accent,
				"break":  s.BreakBefore,
				"blocks": blockViews(s.Blocks),
			})
		}
		pages = append(pages, map[string]any{
			"title":    page.Title,
			"number":   start,
			"sections": sections,
		})
		number++
	}
	created := ""
	if !doc.Meta.CreatedAt.IsZero() {
		created = doc.Meta.CreatedAt.Format("02/01/2006 15:04")
	}
	return map[string]any{
		"id":      doc.Meta.ID,
		"kind":    doc.Meta.Kind,
		"title":   doc.Meta.Title,
		"author":  doc.Meta.Author,
		"created": created,
		"header":  doc.Header,
		"note":    doc.Footer.Note,
		"pages":   pages,
		"total":   doc.PageCount(),
	}
}

func blockViews(blocks []document.Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case document.Fields:
			rows := make([]map[string]any, 0, len(v.Rows))
			for _, f := range v.Rows {
				rows = append(rows, map[string]any{
					"label":     f.Label,
					"value":     f.Value,
					"highlight": string(f.Highlight),
				})
			}
			out = append(out, map[string]any{"kind": "fields", "rows": rows})
		case document.Table:
			rows := make([][]map[string]any, 0, len(v.Rows))
			for _, row := range v.Rows {
				cells := make([]map[string]any, 0, len(row))
				for _, c := range row {
					cells = append(cells, map[string]any{"text": c.Text, "highlight": string(c.Highlight)})
				}
				rows = append(rows, cells)
			}
			out = append(out, map[string]any{"kind": "table", "columns": v.Columns, "rows": rows})
		case document.Paragraph:
			out = append(out, map[string]any{"kind": "paragraph", "text": v.Text})
		}
	}
	return out
}
