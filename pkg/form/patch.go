package form

// Patch is a partial update of a RequestForm. Nil fields are left untouched
// by Apply, so decoding a JSON object into a Patch yields exactly the keys the
// object carried.
type Patch struct {
	Requester       *string       `json:"requester,omitempty"`
	Email           *string       `json:"email,omitempty"`
	Department      *string       `json:"departament,omitempty"`
	Client          *string       `json:"client,omitempty"`
	Project         *string       `json:"project,omitempty"`
	InvoiceNumber   *string       `json:"invoiceNumber,omitempty"`
	ClientNumber    *string       `json:"clientNumber,omitempty"`
	Gateway         *string       `json:"gateway,omitempty"`
	SigmaConnection *string       `json:"sigmaConnection,omitempty"`
	Entradas        *[]Connection `json:"entradas,omitempty"`
	Saidas          *[]Connection `json:"saidas,omitempty"`
	Comments        *string       `json:"comments,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply merges p into r shallowly and returns the result. r is not modified.
func (p Patch) Apply(r RequestForm) RequestForm {
	out := r.Clone()
	setString(&out.Requester, p.Requester)
	setString(&out.Email, p.Email)
	setString(&out.Department, p.Department)
	setString(&out.Client, p.Client)
	setString(&out.Project, p.Project)
	setString(&out.InvoiceNumber, p.InvoiceNumber)
	setString(&out.ClientNumber, p.ClientNumber)
	setString(&out.Gateway, p.Gateway)
	setString(&out.SigmaConnection, p.SigmaConnection)
	setString(&out.Comments, p.Comments)
	if p.Entradas != nil {
		out.Entradas = cloneConnections(*p.Entradas)
	}
	if p.Saidas != nil {
		out.Saidas = cloneConnections(*p.Saidas)
	}
	return out
}

// GeneralPatch captures the general-info fields of r.
func GeneralPatch(r RequestForm) Patch {
	return Patch{
		Requester:       String(r.Requester),
		Email:           String(r.Email),
		Department:      String(r.Department),
		Client:          String(r.Client),
		Project:         String(r.Project),
		InvoiceNumber:   String(r.InvoiceNumber),
		ClientNumber:    String(r.ClientNumber),
		Gateway:         String(r.Gateway),
		SigmaConnection: String(r.SigmaConnection),
	}
}

// InputsPatch captures the input connections of r.
func InputsPatch(r RequestForm) Patch {
	conns := cloneConnections(r.Entradas)
	if conns == nil {
		conns = []Connection{}
	}
	return Patch{Entradas: &conns}
}

// OutputsPatch captures the output connections of r.
func OutputsPatch(r RequestForm) Patch {
	conns := cloneConnections(r.Saidas)
	if conns == nil {
		conns = []Connection{}
	}
	return Patch{Saidas: &conns}
}

// CommentsPatch captures the free-text comment.
func CommentsPatch(comment string) Patch {
	return Patch{Comments: String(comment)}
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
