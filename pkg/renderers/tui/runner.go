// Package tui walks the request and approval flows in a terminal through a
// PromptDriver.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/wizard"
)

// Navigation and menu labels.
const (
	actionNext     = "Próximo"
	actionPrev     = "Anterior"
	actionSkip     = "Ir para o final"
	actionClear    = "Limpar formulário"
	actionQuit     = "Sair"
	actionGenerate = "Gerar documento"
	actionContinue = "Continuar"
	actionDone     = "Concluir"
	actionAddIED   = "Adicionar IED"
	otherModel     = "Outro"
)

var (
	baudRates = []string{"1200", "2400", "4800", "9600", "19200", "38400", "57600", "115200"}
	dataBits  = []string{"7", "8"}
	parities  = []string{"None", "Even", "Odd"}
	stopBits  = []string{"1", "2"}
)

// Runner drives the request wizard.
type Runner struct {
	ctrl    *wizard.Controller
	catalog *catalog.Catalog
	p       prompter
	cfg     settings
}

// NewRunner builds a Runner over ctrl.
func NewRunner(ctrl *wizard.Controller, options ...Option) (*Runner, error) {
	if ctrl == nil {
		return nil, errors.New("tui: wizard controller is required")
	}
	cfg := applyOptions(options)
	return &Runner{
		ctrl:    ctrl,
		catalog: ctrl.Catalog(),
		p:       prompter{driver: cfg.driver, theme: cfg.theme},
		cfg:     cfg,
	}, nil
}

// Run prompts step by step until a document is generated and saved, or the
// user leaves. Leaving returns ErrAborted; the stored session is kept.
func (r *Runner) Run(ctx context.Context) (*document.Artifact, string, error) {
	for {
		step := r.ctrl.Step()
		if err := r.p.info(ctx, fmt.Sprintf("%s (%d/%d)", step.Title(), int(step)+1, len(wizard.Steps))); err != nil {
			return nil, "", err
		}

		var err error
		switch step {
		case wizard.General:
			err = r.general(ctx)
		case wizard.Inputs, wizard.Outputs:
			err = r.connections(ctx, step)
		case wizard.Comments:
			err = r.comments(ctx)
		}
		if err != nil {
			return nil, "", err
		}

		artifact, path, done, err := r.navigate(ctx, step)
		if err != nil || done {
			return artifact, path, err
		}
	}
}

// navigate asks what to do after a step. Validation and assembly failures
// are printed and the step is shown again.
func (r *Runner) navigate(ctx context.Context, step wizard.Step) (*document.Artifact, string, bool, error) {
	var actions []string
	if step == wizard.Comments {
		actions = append(actions, actionGenerate)
	} else {
		actions = append(actions, actionNext)
	}
	if step != wizard.General {
		actions = append(actions, actionPrev)
	}
	if r.ctrl.CanSkipToEnd() {
		actions = append(actions, actionSkip)
	}
	actions = append(actions, actionClear, actionQuit)

	action, err := r.p.choose(ctx, "O que deseja fazer?", actions, actions[0])
	if err != nil {
		return nil, "", false, err
	}

	switch action {
	case actionNext:
		err = r.ctrl.Next(ctx)
	case actionPrev:
		err = r.ctrl.Prev(ctx)
	case actionSkip:
		err = r.ctrl.SkipToEnd(ctx)
	case actionClear:
		ok, cerr := r.p.driver.Confirm(ctx, ConfirmConfig{Message: "Apagar todos os dados do formulário?"})
		if cerr != nil {
			return nil, "", false, cerr
		}
		if ok {
			err = r.ctrl.Clear(ctx)
		}
	case actionQuit:
		return nil, "", true, ErrAborted
	case actionGenerate:
		return r.generate(ctx)
	}
	if err != nil {
		if recoverable(err) {
			return nil, "", false, r.p.failure(ctx, err)
		}
		return nil, "", false, err
	}
	return nil, "", false, nil
}

func (r *Runner) generate(ctx context.Context) (*document.Artifact, string, bool, error) {
	artifact, err := r.ctrl.Submit(ctx, r.ctrl.Draft().Comments)
	if err != nil {
		if recoverable(err) {
			return nil, "", false, r.p.failure(ctx, err)
		}
		return nil, "", false, err
	}
	path, err := artifact.Save(r.cfg.fs, r.cfg.outputDir)
	if err != nil {
		return nil, "", false, err
	}
	r.cfg.logger.Info("request saved", zap.String("path", path))
	if err := r.p.info(ctx, "Documento salvo em "+path); err != nil {
		return nil, "", false, err
	}
	return artifact, path, true, nil
}

func recoverable(err error) bool {
	return errors.Is(err, form.ErrValidation) ||
		errors.Is(err, form.ErrAssembly) ||
		errors.Is(err, form.ErrParse) ||
		errors.Is(err, wizard.ErrTransition)
}

func (r *Runner) general(ctx context.Context) error {
	draft := r.ctrl.Draft()

	requester, err := r.p.choose(ctx, "Requerente", r.catalog.RequesterNames(), draft.Requester)
	if err != nil {
		return err
	}
	client, err := r.p.input(ctx, "Cliente", draft.Client)
	if err != nil {
		return err
	}
	project, err := r.p.input(ctx, "Projeto", draft.Project)
	if err != nil {
		return err
	}
	invoice, err := r.p.input(ctx, "Número do pedido", draft.InvoiceNumber)
	if err != nil {
		return err
	}
	clientNumber, err := r.p.input(ctx, "Número do cliente", draft.ClientNumber)
	if err != nil {
		return err
	}
	gateway, err := r.p.choose(ctx, "Gateway", r.catalog.Gateways, draft.Gateway)
	if err != nil {
		return err
	}
	sigma, err := r.p.choose(ctx, "Conexão Sigma", r.catalog.SigmaModes, draft.SigmaConnection)
	if err != nil {
		return err
	}

	r.ctrl.SetGeneral(form.Patch{
		Requester:       form.String(requester),
		Client:          form.String(client),
		Project:         form.String(project),
		InvoiceNumber:   form.String(invoice),
		ClientNumber:    form.String(clientNumber),
		Gateway:         form.String(gateway),
		SigmaConnection: form.String(sigma),
	})
	opts := r.ctrl.Options()
	if opts.Email == "" {
		return r.p.info(ctx, "Requerente sem cadastro: email e departamento ficarão vazios")
	}
	return r.p.info(ctx, fmt.Sprintf("%s, %s", opts.Email, opts.Department))
}

func listLabel(list wizard.Step) string {
	if list == wizard.Outputs {
		return "saída"
	}
	return "entrada"
}

// connections edits the connection list of the step until the user
// continues.
func (r *Runner) connections(ctx context.Context, list wizard.Step) error {
	label := listLabel(list)
	for {
		conns, err := r.ctrl.Connections(list)
		if err != nil {
			return err
		}
		menu := []string{"Adicionar " + label}
		type entry struct {
			kind  string
			index int
		}
		entries := []entry{{kind: "add"}}
		for i, conn := range conns {
			n := strconv.Itoa(i + 1)
			menu = append(menu,
				fmt.Sprintf("Editar %s %s (%s %s, %d IEDs)", label, n, conn.Type, conn.Protocol, len(conn.IEDs)),
				"Remover "+label+" "+n,
			)
			entries = append(entries, entry{"edit", i}, entry{"remove", i})
			if list == wizard.Outputs {
				menu = append(menu, "Replicar IEDs das entradas na saída "+n)
				entries = append(entries, entry{"replicate", i})
			}
		}
		menu = append(menu, actionContinue)
		entries = append(entries, entry{kind: "continue"})

		choice, err := r.p.choose(ctx, list.Title(), menu, "")
		if err != nil {
			return err
		}
		e := entries[indexOf(menu, choice)]
		switch e.kind {
		case "add":
			idx, err := r.ctrl.AddConnection(list)
			if err != nil {
				return err
			}
			err = r.editConnection(ctx, list, idx)
			if err != nil {
				return err
			}
		case "edit":
			if err := r.editConnection(ctx, list, e.index); err != nil {
				return err
			}
		case "remove":
			if err := r.ctrl.RemoveConnection(list, e.index); err != nil {
				return err
			}
		case "replicate":
			if err := r.ctrl.ReplicateInputs(e.index); err != nil {
				return err
			}
		case "continue":
			return nil
		}
	}
}

func (r *Runner) editConnection(ctx context.Context, list wizard.Step, index int) error {
	conns, err := r.ctrl.Connections(list)
	if err != nil {
		return err
	}
	conn := conns[index]
	n := strconv.Itoa(index + 1)

	types, err := r.ctrl.TypeOptions(list, index)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		return r.p.info(ctx, "Nenhum tipo de conexão disponível para a "+listLabel(list)+" "+n)
	}
	connType, err := r.p.choose(ctx, "Tipo da "+listLabel(list)+" "+n, types, conn.Type)
	if err != nil {
		return err
	}
	if err := r.ctrl.SetConnectionType(list, index, connType); err != nil {
		return err
	}

	protocols := r.catalog.InputProtocols
	if list == wizard.Outputs {
		protocols = r.catalog.OutputProtocols
	}
	protocol, err := r.p.choose(ctx, "Protocolo", protocols, conn.Protocol)
	if err != nil {
		return err
	}
	if err := r.ctrl.SetProtocol(list, index, protocol); err != nil {
		return err
	}

	if connType == form.ConnectionTypeTCP {
		conns, _ = r.ctrl.Connections(list)
		ip, err := r.p.input(ctx, "IP", conns[index].IP)
		if err != nil {
			return err
		}
		port, err := r.p.input(ctx, "Porta", conns[index].Port)
		if err != nil {
			return err
		}
		if err := r.ctrl.SetEndpoint(list, index, ip, port); err != nil {
			return err
		}
	} else {
		baud, err := r.p.choose(ctx, "Baud Rate", baudRates, conn.BaudRate)
		if err != nil {
			return err
		}
		bits, err := r.p.choose(ctx, "Data Bits", dataBits, conn.DataBits)
		if err != nil {
			return err
		}
		parity, err := r.p.choose(ctx, "Paridade", parities, conn.Parity)
		if err != nil {
			return err
		}
		stop, err := r.p.choose(ctx, "Stop Bits", stopBits, conn.StopBits)
		if err != nil {
			return err
		}
		if err := r.ctrl.SetSerial(list, index, baud, bits, parity, stop); err != nil {
			return err
		}
	}
	return r.devices(ctx, list, index)
}

func (r *Runner) devices(ctx context.Context, list wizard.Step, index int) error {
	for {
		conns, err := r.ctrl.Connections(list)
		if err != nil {
			return err
		}
		devices := conns[index].IEDs
		menu := []string{actionAddIED}
		for k, dev := range devices {
			n := strconv.Itoa(k + 1)
			menu = append(menu,
				fmt.Sprintf("Editar IED %s (%s)", n, dev.Name),
				"Copiar IED "+n,
				"Remover IED "+n,
			)
		}
		menu = append(menu, actionDone)

		choice, err := r.p.choose(ctx, "IEDs", menu, "")
		if err != nil {
			return err
		}
		pos := indexOf(menu, choice)
		switch {
		case choice == actionAddIED:
			k, err := r.ctrl.AddDevice(list, index)
			if err != nil {
				return err
			}
			if err := r.editDevice(ctx, list, index, k, form.Device{}); err != nil {
				return err
			}
		case choice == actionDone:
			return nil
		default:
			k := (pos - 1) / 3
			switch (pos - 1) % 3 {
			case 0:
				err = r.editDevice(ctx, list, index, k, devices[k])
			case 1:
				err = r.ctrl.CopyDevice(list, index, k)
			case 2:
				err = r.ctrl.RemoveDevice(list, index, k)
			}
			if err != nil {
				return err
			}
		}
	}
}

// modelChoices lists "name (manufacturer)" labels: the catalog for inputs,
// the devices already entered on the inputs for outputs.
func (r *Runner) modelChoices(list wizard.Step) ([]string, []catalog.Model) {
	var models []catalog.Model
	if list == wizard.Outputs {
		opts := r.ctrl.Options()
		models = append(append(models, opts.Home...), opts.ThirdParty...)
	} else {
		models = r.catalog.Models()
	}
	labels := make([]string, 0, len(models)+1)
	for _, m := range models {
		labels = append(labels, modelLabel(m))
	}
	return append(labels, otherModel), models
}

func modelLabel(m catalog.Model) string {
	return m.Name + " (" + m.Manufacturer + ")"
}

func (r *Runner) editDevice(ctx context.Context, list wizard.Step, index, k int, current form.Device) error {
	labels, models := r.modelChoices(list)
	currentLabel := ""
	if current.Name != "" {
		currentLabel = modelLabel(catalog.Model{Name: current.Name, Manufacturer: current.Manufacturer})
	}
	choice, err := r.p.choose(ctx, "IED", labels, currentLabel)
	if err != nil {
		return err
	}

	dev := current
	if choice == otherModel {
		if dev.Name, err = r.p.input(ctx, "Nome do IED", current.Name); err != nil {
			return err
		}
		if dev.Manufacturer, err = r.p.input(ctx, "Fabricante", current.Manufacturer); err != nil {
			return err
		}
	} else {
		m := models[indexOf(labels, choice)]
		dev.Name, dev.Manufacturer = m.Name, m.Manufacturer
	}

	address := current.Address.String()
	if address == "" {
		address = strconv.Itoa(k + 1)
	}
	value, err := r.p.input(ctx, "Endereço", address)
	if err != nil {
		return err
	}
	dev.Address = form.Text(value)

	if r.catalog.RequiresModules(dev.Name) {
		value, err := r.p.input(ctx, "Módulos", current.Modules.String())
		if err != nil {
			return err
		}
		dev.Modules = form.Text(value)
	}
	if dev.Optional, err = r.p.input(ctx, "Opcional", current.Optional); err != nil {
		return err
	}
	return r.ctrl.SetDevice(list, index, k, dev)
}

func (r *Runner) comments(ctx context.Context) error {
	draft := r.ctrl.Draft()
	text, err := r.p.driver.TextArea(ctx, TextAreaConfig{Message: "Comentários", Default: draft.Comments})
	if err != nil {
		return err
	}
	r.ctrl.SetComments(text)
	return nil
}
