// Package document builds renderer-neutral page trees for the request and
// approval flows and runs them through the configured renderers.
package document

import "time"

// Document kinds.
const (
	KindRequest  = "request"
	KindApproval = "approval"
)

// Highlight is the background a value is printed on.
type Highlight string

const (
	HighlightNone       Highlight = ""
	HighlightHome       Highlight = "home"
	HighlightThirdParty Highlight = "third-party"
	HighlightProtocol   Highlight = "protocol"
	HighlightSigma      Highlight = "sigma"
)

// Document is a paginated tree. Renderers lay out each page in order and
// start a new physical page wherever a section asks for a break.
type Document struct {
	Meta   Meta
	Header string
	Footer Footer
	Pages  []Page
}

// Meta identifies a generated document.
type Meta struct {
	ID        string
	Kind      string
	Title     string
	Author    string
	Subject   string
	CreatedAt time.Time
}

// Footer is printed at the bottom of every physical page.
type Footer struct {
	// PageNumbers prints "n / total".
	PageNumbers bool
	Note        string
}

// Page starts on a fresh physical page.
type Page struct {
	Title    string
	Sections []Section
}

// Section groups blocks under an optional heading.
type Section struct {
	Title string
	// Accent prints the heading in the brand colour.
	Accent      bool
	BreakBefore bool
	Blocks      []Block
}

// Block is one of Fields, Table or Paragraph.
type Block interface {
	block()
}

// Fields is a label/value list.
type Fields struct {
	Rows []Field
}

// Field is one label/value row.
type Field struct {
	Label     string
	Value     string
	Highlight Highlight
}

// Table is a grid with a header row.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Cell is a table cell.
type Cell struct {
	Text      string
	Highlight Highlight
}

// Paragraph is free text.
type Paragraph struct {
	Text string
}

func (Fields) block()    {}
func (Table) block()     {}
func (Paragraph) block() {}

// PageCount is the number of physical pages the tree asks for: one per page
// plus one per section break.
func (d *Document) PageCount() int {
	n := 0
	for _, p := range d.Pages {
		n++
		for _, s := range p.Sections {
			if s.BreakBefore {
				n++
			}
		}
	}
	return n
}

// Texts flattens every string of the tree in reading order.
func (d *Document) Texts() []string {
	var out []string
	add := func(values ...string) {
		for _, v := range values {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	add(d.Header)
	for _, p := range d.Pages {
		add(p.Title)
		for _, s := range p.Sections {
			add(s.Title)
			for _, b := range s.Blocks {
				switch b := b.(type) {
				case Fields:
					for _, f := range b.Rows {
						add(f.Label, f.Value)
					}
				case Table:
					add(b.Columns...)
					for _, row := range b.Rows {
						for _, c := range row {
							add(c.Text)
						}
					}
				case Paragraph:
					add(b.Text)
				}
			}
		}
	}
	add(d.Footer.Note)
	return out
}

func cells(values ...string) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		out[i] = Cell{Text: v}
	}
	return out
}
