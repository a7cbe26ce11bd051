package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/options"
)

const (
	requestTitle   = "Requisição de Aplicação"
	none           = "Nenhum"
	sameAsInput    = "Idem à Entrada"
	approvalFooter = "Essa folha apresenta informações relativas ao pedido de "
)

var deviceColumns = []string{"Nome", "Fabricante", "Endereço", "Módulos", "Opcional"}

// Assembler turns finished forms into document trees. It never modifies the
// forms it reads.
type Assembler struct {
	catalog *catalog.Catalog
	now     func() time.Time
	newID   func() string
}

// AssemblerOption customises an Assembler.
type AssemblerOption func(*Assembler)

// WithCatalog sets the catalog used to tell house-brand devices apart.
func WithCatalog(c *catalog.Catalog) AssemblerOption {
	return func(a *Assembler) {
		if c != nil {
			a.catalog = c
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator overrides the document id source.
func WithIDGenerator(fn func() string) AssemblerOption {
	return func(a *Assembler) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// NewAssembler builds an Assembler over the bundled catalog unless told
// otherwise.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		catalog: catalog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Request builds the application request: a summary page, then one page of
// input details and one of output details when those lists are not empty.
func (a *Assembler) Request(r form.RequestForm, comment string) *Document {
	doc := &Document{
		Meta:   a.meta(KindRequest, requestTitle, r.Requester, r.Client),
		Header: requestTitle,
		Footer: Footer{PageNumbers: true},
	}
	doc.Pages = append(doc.Pages, a.summaryPage(r, comment))
	if len(r.Entradas) > 0 {
		doc.Pages = append(doc.Pages, a.connectionsPage("Detalhes das Entradas", "Entrada", r.Entradas, false))
	}
	if len(r.Saidas) > 0 {
		doc.Pages = append(doc.Pages, a.connectionsPage("Detalhes das Saídas", "Saída", r.Saidas, true))
	}
	return doc
}

// ApprovalCover builds the one-page cover placed ahead of the attached
// document.
func (a *Assembler) ApprovalCover(f form.ApprovalForm) *Document {
	approval := plainText(f.Approval)
	title := "Requisição de " + approval
	doc := &Document{
		Meta:   a.meta(KindApproval, title, f.Requester, f.Client),
		Header: title,
		Footer: Footer{Note: approvalFooter + approval},
	}

	page := Page{Sections: []Section{
		{Blocks: []Block{Fields{Rows: []Field{
			{Label: "Requerente", Value: plainText(f.Requester)},
			{Label: "Email", Value: plainText(f.Email)},
			{Label: "Departamento", Value: plainText(f.Department)},
			{Label: "Cliente", Value: plainText(f.Client)},
			{Label: "Protocolos", Value: plainText(f.Protocols), Highlight: HighlightProtocol},
			{Label: "Site de acesso", Value: plainText(f.URL)},
		}}}},
		{Blocks: []Block{Table{
			Columns: []string{"Fabricante", "Nome do equipamento", "Tipo do equipamento", "Documento anexado"},
			Rows: [][]Cell{cells(
				plainText(f.Manufacturer),
				plainText(f.Name),
				plainText(f.Type),
				plainText(f.DocumentType),
			)},
		}}},
	}}
	if text := plainText(f.Comments); text != "" {
		page.Sections = append(page.Sections, Section{Title: "Comentários", Blocks: []Block{Paragraph{Text: text}}})
	}
	doc.Pages = []Page{page}
	return doc
}

func (a *Assembler) meta(kind, title, author, subject string) Meta {
	return Meta{
		ID:        a.newID(),
		Kind:      kind,
		Title:     title,
		Author:    plainText(author),
		Subject:   plainText(subject),
		CreatedAt: a.now(),
	}
}

func (a *Assembler) summaryPage(r form.RequestForm, comment string) Page {
	general := Section{
		Title: "Informações Gerais",
		Blocks: []Block{Fields{Rows: []Field{
			{Label: "Requerente", Value: plainText(r.Requester)},
			{Label: "Email", Value: plainText(r.Email)},
			{Label: "Departamento", Value: plainText(r.Department)},
			{Label: "Cliente", Value: plainText(r.Client)},
			{Label: "Projeto", Value: plainText(r.Project)},
			{Label: "Número do Pedido", Value: plainText(r.InvoiceNumber)},
			{Label: "Número do Cliente", Value: plainText(r.ClientNumber)},
			{Label: "Gateway", Value: plainText(r.Gateway)},
			{Label: "Conexão Sigma", Value: plainText(r.SigmaConnection), Highlight: HighlightSigma},
		}}},
	}

	third := options.ThirdPartyDevices(a.catalog, r)
	names := make([]string, 0, len(third))
	for _, m := range third {
		names = append(names, plainText(m.Name))
	}
	thirdCell := none
	if len(names) > 0 {
		thirdCell = strings.Join(names, ", ")
	}
	details := Section{
		Title: "Detalhes da Aplicação",
		Blocks: []Block{Table{
			Columns: []string{"Entradas", "Saídas", "IEDs de terceiros"},
			Rows: [][]Cell{{
				{Text: joinPlain(options.DistinctProtocols(r.Entradas))},
				{Text: joinPlain(options.DistinctProtocols(r.Saidas)), Highlight: HighlightProtocol},
				{Text: thirdCell, Highlight: HighlightThirdParty},
			}},
		}},
	}

	page := Page{Sections: []Section{general, details}}
	if text := plainText(comment); text != "" {
		page.Sections = append(page.Sections, Section{Title: "Comentários", Blocks: []Block{Paragraph{Text: text}}})
	}
	return page
}

// connectionsPage lists one section per connection, each after the first on
// a new physical page. Output device tables point back at the inputs for
// modules and options.
func (a *Assembler) connectionsPage(title, label string, conns []form.Connection, outputs bool) Page {
	page := Page{Title: title}
	for i, conn := range conns {
		section := Section{
			Title:       label + " " + strconv.Itoa(i+1),
			Accent:      true,
			BreakBefore: i > 0,
			Blocks:      []Block{connectionFields(conn)},
		}
		if len(conn.IEDs) > 0 {
			section.Blocks = append(section.Blocks, a.deviceTable(conn.IEDs, outputs))
		}
		page.Sections = append(page.Sections, section)
	}
	return page
}

func connectionFields(conn form.Connection) Fields {
	rows := []Field{
		{Label: "Tipo", Value: plainText(conn.Type)},
		{Label: "Protocolo", Value: plainText(conn.Protocol), Highlight: HighlightProtocol},
	}
	if conn.IsTCP() {
		rows = append(rows,
			Field{Label: "IP", Value: plainText(conn.IP)},
			Field{Label: "Porta", Value: plainText(conn.Port)},
		)
	} else {
		rows = append(rows,
			Field{Label: "Baud Rate", Value: plainText(conn.BaudRate)},
			Field{Label: "Data Bits", Value: plainText(conn.DataBits)},
			Field{Label: "Paridade", Value: plainText(conn.Parity)},
			Field{Label: "Stop Bits", Value: plainText(conn.StopBits)},
		)
	}
	return Fields{Rows: rows}
}

func (a *Assembler) deviceTable(devices []form.Device, outputs bool) Table {
	table := Table{Columns: deviceColumns}
	for _, dev := range devices {
		manufacturer := Cell{Text: plainText(dev.Manufacturer), Highlight: HighlightThirdParty}
		if a.catalog.IsHome(dev.Manufacturer) {
			manufacturer.Highlight = HighlightHome
		}
		modules, optional := plainText(dev.Modules.String()), plainText(dev.Optional)
		if outputs {
			modules, optional = sameAsInput, sameAsInput
		}
		table.Rows = append(table.Rows, []Cell{
			{Text: plainText(dev.Name)},
			manufacturer,
			{Text: plainText(dev.Address.String())},
			{Text: modules},
			{Text: optional},
		})
	}
	return table
}

func joinPlain(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if text := plainText(v); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, ", ")
}
