package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/store"
)

type stubSubmitter struct {
	calls   int
	form    form.RequestForm
	comment string
	err     error
}

func (s *stubSubmitter) Request(_ context.Context, r form.RequestForm, comment string) (*document.Artifact, error) {
	s.calls++
	s.form = r
	s.comment = comment
	if s.err != nil {
		return nil, s.err
	}
	return &document.Artifact{Name: "acme-requisicao.pdf", Data: []byte("%PDF-")}, nil
}

func newController(t *testing.T, opts ...Option) (*Controller, *store.Store) {
	t.Helper()
	st, err := store.New(context.Background(), store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return New(st, opts...), st
}

func fillGeneral(c *Controller) {
	c.SetGeneral(form.Patch{
		Requester:     form.String("Bruno Carvalho"),
		Client:        form.String("Acme"),
		Project:       form.String("SE Norte"),
		InvoiceNumber: form.String("PV-1"),
		ClientNumber:  form.String("C-1"),
	})
}

func addInput(t *testing.T, c *Controller, connType, protocol string, devices ...string) int {
	t.Helper()
	idx, err := c.AddConnection(Inputs)
	if err != nil {
		t.Fatalf("add connection: %v", err)
	}
	if err := c.SetConnectionType(Inputs, idx, connType); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if err := c.SetProtocol(Inputs, idx, protocol); err != nil {
		t.Fatalf("set protocol: %v", err)
	}
	for _, name := range devices {
		d, err := c.AddDevice(Inputs, idx)
		if err != nil {
			t.Fatalf("add device: %v", err)
		}
		dev := form.Device{Name: name, Address: form.Itoa(d + 1)}
		if name == "BM" {
			dev.Modules = "2"
		}
		if err := c.SetDevice(Inputs, idx, d, dev); err != nil {
			t.Fatalf("set device: %v", err)
		}
	}
	return idx
}

// walkToOutputs fills General and one TCP/IP input and lands on Outputs.
func walkToOutputs(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	fillGeneral(c)
	if err := c.Next(ctx); err != nil {
		t.Fatalf("general -> inputs: %v", err)
	}
	addInput(t, c, "TCP/IP", "Modbus", "TM1", "SEL-2414")
	if err := c.Next(ctx); err != nil {
		t.Fatalf("inputs -> outputs: %v", err)
	}
}

func TestController_StartsOnGeneral(t *testing.T) {
	c, _ := newController(t)
	if c.Step() != General {
		t.Fatalf("expected General, got %s", c.Step())
	}
	if c.Draft().Gateway != form.DefaultGateway {
		t.Fatalf("draft should start from the empty template")
	}
}

func TestController_NextBlockedByValidation(t *testing.T) {
	c, st := newController(t)
	c.SetGeneral(form.Patch{Client: form.String("Ac")})

	err := c.Next(context.Background())
	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c.Step() != General {
		t.Fatalf("step must stay General, got %s", c.Step())
	}
	if st.State().Client != "" {
		t.Fatalf("failed step must not commit, store has client %q", st.State().Client)
	}
}

func TestController_GeneralResolvesRequester(t *testing.T) {
	c, st := newController(t)
	fillGeneral(c)
	c.SetGeneral(form.Patch{Email: form.String("spoofed@example.com")})

	draft := c.Draft()
	if draft.Email != "bruno.carvalho@treetech.com.br" || draft.Department != "Comercial" {
		t.Fatalf("requester not resolved: %q %q", draft.Email, draft.Department)
	}
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	if c.Step() != Inputs {
		t.Fatalf("expected Inputs, got %s", c.Step())
	}
	if got := st.State(); got.Client != "Acme" || got.Email != "bruno.carvalho@treetech.com.br" {
		t.Fatalf("general step not committed: %+v", got)
	}
}

func TestController_NoInputs(t *testing.T) {
	c, _ := newController(t)
	fillGeneral(c)
	ctx := context.Background()
	if err := c.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}

	err := c.Next(ctx)
	if !errors.Is(err, form.ErrValidation) || !strings.Contains(err.Error(), "no inputs") {
		t.Fatalf("expected no inputs validation error, got %v", err)
	}
	if c.Step() != Inputs {
		t.Fatalf("step must stay Inputs, got %s", c.Step())
	}
}

func TestController_ModuleBearingDevice(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	fillGeneral(c)
	if err := c.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	idx := addInput(t, c, "TCP/IP", "Modbus")
	d, _ := c.AddDevice(Inputs, idx)
	if err := c.SetDevice(Inputs, idx, d, form.Device{Name: "BM", Address: "1"}); err != nil {
		t.Fatalf("set device: %v", err)
	}
	if got := c.Draft().Entradas[0].IEDs[0].Manufacturer; got != "Treetech" {
		t.Fatalf("manufacturer not filled from catalog: %q", got)
	}

	err := c.Next(ctx)
	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Connection != 1 || vErr.Device != 1 || !strings.Contains(vErr.Message, "BM") || !strings.Contains(vErr.Message, "modules") {
		t.Fatalf("unexpected validation error %+v", vErr)
	}
	if pos, ok := vErr.ScrollTarget(); !ok || pos != 0 {
		t.Fatalf("expected scroll to first connection, got %d %v", pos, ok)
	}
}

func TestController_RestrictedTypesAreExclusive(t *testing.T) {
	c, _ := newController(t)
	fillGeneral(c)
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	addInput(t, c, "71-72", "Modbus", "TM1")
	second, _ := c.AddConnection(Inputs)

	offered, err := c.TypeOptions(Inputs, second)
	if err != nil {
		t.Fatalf("type options: %v", err)
	}
	for _, typ := range offered {
		if typ == "71-72" {
			t.Fatalf("claimed restricted type still offered: %v", offered)
		}
	}
	if err := c.SetConnectionType(Inputs, second, "71-72"); !errors.Is(err, ErrOptionUnavailable) {
		t.Fatalf("expected ErrOptionUnavailable, got %v", err)
	}
	if err := c.SetConnectionType(Inputs, second, "TCP/IP"); err != nil {
		t.Fatalf("unrestricted type should be accepted: %v", err)
	}
}

func TestController_OutputsSeededFromInputs(t *testing.T) {
	c, st := newController(t)
	walkToOutputs(t, c)

	outs := c.Draft().Saidas
	if len(outs) != 1 {
		t.Fatalf("expected one seeded output, got %d", len(outs))
	}
	seeded := outs[0]
	if seeded.Protocol != "Modbus" || seeded.Type == "TCP/IP" {
		t.Fatalf("seeded output must not reuse the input type: %+v", seeded)
	}
	want := []form.Device{
		{Name: "TM1", Manufacturer: "Treetech", Address: "1"},
		{Name: "SEL-2414", Manufacturer: "SEL", Address: "2"},
	}
	if diff := cmp.Diff(want, seeded.IEDs); diff != "" {
		t.Fatalf("seeded devices mismatch (-want +got):\n%s", diff)
	}
	if st.State().HasOutputs() {
		t.Fatal("seeding must not commit outputs")
	}

	offered, _ := c.TypeOptions(Outputs, 0)
	for _, typ := range offered {
		if typ == "TCP/IP" {
			t.Fatalf("output options include an input type: %v", offered)
		}
	}
}

func TestController_OutputProtocolFillsPort(t *testing.T) {
	c, _ := newController(t)
	walkToOutputs(t, c)

	if err := c.SetProtocol(Outputs, 0, "DNP3"); err != nil {
		t.Fatalf("set protocol: %v", err)
	}
	if got := c.Draft().Saidas[0].Port; got != "20000" {
		t.Fatalf("expected port 20000, got %q", got)
	}
	if err := c.SetProtocol(Outputs, 0, "Proprietário"); err != nil {
		t.Fatalf("set protocol: %v", err)
	}
	if got := c.Draft().Saidas[0].Port; got != "" {
		t.Fatalf("unknown protocol should clear the port, got %q", got)
	}
}

func TestController_PrevCommitsWithoutValidation(t *testing.T) {
	c, st := newController(t)
	walkToOutputs(t, c)
	ctx := context.Background()

	if err := c.RemoveDevice(Outputs, 0, 1); err != nil {
		t.Fatalf("remove device: %v", err)
	}
	if _, err := c.AddConnection(Outputs); err != nil {
		t.Fatalf("add connection: %v", err)
	}
	if err := c.Prev(ctx); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if c.Step() != Inputs {
		t.Fatalf("expected Inputs, got %s", c.Step())
	}
	saved := st.State().Saidas
	if len(saved) != 2 || len(saved[0].IEDs) != 1 || len(saved[1].IEDs) != 0 {
		t.Fatalf("prev should commit the outputs as edited: %+v", saved)
	}

	if err := c.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := len(c.Draft().Saidas); got != 2 {
		t.Fatalf("stored outputs should be shown again, got %d", got)
	}
}

func TestController_PrevLeavesUntouchedSeedUncommitted(t *testing.T) {
	c, st := newController(t)
	walkToOutputs(t, c)
	ctx := context.Background()
	seeded := c.Draft().Saidas

	if err := c.Prev(ctx); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if st.State().HasOutputs() {
		t.Fatalf("untouched seed should not be stored: %+v", st.State().Saidas)
	}
	if c.CanSkipToEnd() {
		t.Fatal("skipping must wait until outputs were committed")
	}

	if err := c.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if diff := cmp.Diff(seeded, c.Draft().Saidas); diff != "" {
		t.Fatalf("seed should be offered again (-want +got):\n%s", diff)
	}
	if err := c.SetProtocol(Outputs, 0, "DNP3"); err != nil {
		t.Fatalf("set protocol: %v", err)
	}
	if err := c.Prev(ctx); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if !st.State().HasOutputs() {
		t.Fatal("an edited seed should be committed on prev")
	}
}

func TestController_TransitionBounds(t *testing.T) {
	c, _ := newController(t)
	if err := c.Prev(context.Background()); !errors.Is(err, ErrTransition) {
		t.Fatalf("prev on General should fail, got %v", err)
	}
	if err := c.SkipToEnd(context.Background()); !errors.Is(err, ErrTransition) {
		t.Fatalf("skip without outputs should fail, got %v", err)
	}
	if c.CanSkipToEnd() {
		t.Fatal("cannot skip on an empty store")
	}
	if _, err := c.Submit(context.Background(), "x"); !errors.Is(err, ErrTransition) {
		t.Fatalf("submit outside Comments should fail, got %v", err)
	}
}

func TestController_SkipSubmitAndClear(t *testing.T) {
	ctx := context.Background()
	submitter := &stubSubmitter{}
	c, st := newController(t, WithSubmitter(submitter))
	walkToOutputs(t, c)
	if err := c.Next(ctx); err != nil {
		t.Fatalf("outputs -> comments: %v", err)
	}
	if err := c.Next(ctx); !errors.Is(err, ErrTransition) {
		t.Fatalf("next on Comments should fail, got %v", err)
	}

	restarted := New(st, WithSubmitter(submitter))
	if !restarted.CanSkipToEnd() {
		t.Fatal("stored outputs should allow skipping")
	}
	if err := restarted.SkipToEnd(ctx); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if restarted.Step() != Comments {
		t.Fatalf("expected Comments, got %s", restarted.Step())
	}

	artifact, err := restarted.Submit(ctx, "entregar em março")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if artifact.Name != "acme-requisicao.pdf" || submitter.calls != 1 {
		t.Fatalf("unexpected submit result %+v (calls %d)", artifact, submitter.calls)
	}
	if submitter.comment != "entregar em março" || submitter.form.Comments != "entregar em março" {
		t.Fatalf("comment not handed over: %q %q", submitter.comment, submitter.form.Comments)
	}
	if st.State().Comments != "entregar em março" {
		t.Fatal("comment not persisted")
	}
	if restarted.Step() != Comments {
		t.Fatal("submit must not reset the wizard")
	}

	if err := restarted.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if restarted.Step() != General {
		t.Fatalf("clear should restart on General, got %s", restarted.Step())
	}
	if diff := cmp.Diff(form.Empty(), st.State()); diff != "" {
		t.Fatalf("store not reset (-want +got):\n%s", diff)
	}
}

func TestController_SubmitRechecksSkippedSteps(t *testing.T) {
	ctx := context.Background()
	st, err := store.New(ctx, store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	out := form.NewConnection("Modbus", "74-75")
	out.IEDs = []form.Device{{Name: "TM1", Manufacturer: "Treetech"}}
	saidas := []form.Connection{out}
	if err := st.SetData(ctx, form.Patch{Saidas: &saidas}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	submitter := &stubSubmitter{}
	c := New(st, WithSubmitter(submitter))
	if err := c.SkipToEnd(ctx); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := c.Submit(ctx, ""); !errors.Is(err, form.ErrValidation) {
		t.Fatalf("expected validation error for the empty general step, got %v", err)
	}
	if submitter.calls != 0 {
		t.Fatal("submitter must not run on an invalid form")
	}
}

func TestController_SubmitWithoutSubmitter(t *testing.T) {
	c, _ := newController(t)
	walkToOutputs(t, c)
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := c.Submit(context.Background(), ""); !errors.Is(err, ErrNoSubmitter) {
		t.Fatalf("expected ErrNoSubmitter, got %v", err)
	}
}

func TestController_DeviceHelpers(t *testing.T) {
	c, _ := newController(t)
	walkToOutputs(t, c)

	if err := c.CopyDevice(Outputs, 0, 0); err != nil {
		t.Fatalf("copy: %v", err)
	}
	devices := c.Draft().Saidas[0].IEDs
	if len(devices) != 3 || devices[2].Name != "TM1" || devices[2].Address != "3" {
		t.Fatalf("copy should append TM1 at address 3: %+v", devices)
	}

	if err := c.ReplicateInputs(0); err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if got := len(c.Draft().Saidas[0].IEDs); got != 2 {
		t.Fatalf("replicate should restore the input devices, got %d", got)
	}

	if err := c.ReplicateInputs(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := c.AddConnection(Comments); !errors.Is(err, ErrNotConnectionStep) {
		t.Fatalf("expected ErrNotConnectionStep, got %v", err)
	}
	if err := c.RemoveConnection(Outputs, 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestIsAllowedTransition(t *testing.T) {
	cases := []struct {
		from, to Step
		want     bool
	}{
		{General, Inputs, true},
		{Inputs, General, true},
		{Inputs, Outputs, true},
		{Outputs, Comments, true},
		{General, Comments, true},
		{Comments, General, true},
		{General, Outputs, false},
		{Comments, Comments, false},
		{Comments, Step(4), false},
		{Step(-1), General, false},
	}
	for _, tc := range cases {
		if got := isAllowedTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("isAllowedTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
