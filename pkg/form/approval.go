package form

// Approval kinds offered by the homologation flow.
const (
	ApprovalMapping      = "Mapeamento"
	ApprovalHomologation = "Homologação"
)

// ApprovalForm is the aggregate of the standalone homologation request. The
// attached document travels next to it, never inside it.
type ApprovalForm struct {
	Approval     string `json:"approval"`
	Requester    string `json:"requester"`
	Email        string `json:"email"`
	Department   string `json:"departament"`
	Client       string `json:"client"`
	Manufacturer string `json:"manufacturer"`
	URL          string `json:"url"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	DocumentType string `json:"documentType"`
	Protocols    string `json:"protocols"`
	Comments     string `json:"comments"`
}

// EmptyApproval returns the template for a new approval request.
func EmptyApproval() ApprovalForm {
	return ApprovalForm{Approval: ApprovalMapping}
}
