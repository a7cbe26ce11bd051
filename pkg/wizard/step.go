package wizard

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/validation"
)

// Step is a page of the request wizard.
type Step int

const (
	General Step = iota
	Inputs
	Outputs
	Comments
)

// Steps lists the wizard pages in order.
var Steps = []Step{General, Inputs, Outputs, Comments}

func (s Step) String() string {
	switch s {
	case General:
		return "general"
	case Inputs:
		return "inputs"
	case Outputs:
		return "outputs"
	case Comments:
		return "comments"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case General:
		return "Informações Gerais"
	case Inputs:
		return "Entradas"
	case Outputs:
		return "Saídas"
	case Comments:
		return "Comentários"
	default:
		return s.String()
	}
}

// Section is the validation section gating the step.
func (s Step) Section() validation.Section {
	switch s {
	case General:
		return validation.SectionGeneral
	case Inputs:
		return validation.SectionInputs
	case Outputs:
		return validation.SectionOutputs
	default:
		return validation.SectionComments
	}
}

// patch captures the fields owned by the step.
func (s Step) patch(r form.RequestForm) form.Patch {
	switch s {
	case General:
		return form.GeneralPatch(r)
	case Inputs:
		return form.InputsPatch(r)
	case Outputs:
		return form.OutputsPatch(r)
	case Comments:
		return form.CommentsPatch(r.Comments)
	default:
		return form.Patch{}
	}
}

func (s Step) valid() bool {
	return s >= General && s <= Comments
}

// ErrTransition marks a move the wizard does not allow from its current step.
var ErrTransition = errors.New("wizard: transition not allowed")

// TransitionError reports a rejected move.
type TransitionError struct {
	From   Step
	To     Step
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("wizard: cannot move from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Is(target error) bool { return target == ErrTransition }

// isAllowedTransition encodes the linear topology plus the jump to the last
// step. The jump's precondition is checked by the caller.
func isAllowedTransition(from, to Step) bool {
	if !from.valid() || !to.valid() {
		return false
	}
	switch {
	case to == from+1, to == from-1:
		return true
	case to == Comments && from != Comments:
		return true
	case to == General:
		return true
	default:
		return false
	}
}
