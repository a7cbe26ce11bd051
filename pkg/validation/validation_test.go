package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-iedform/pkg/form"
)

func validGeneral() form.RequestForm {
	return form.RequestForm{
		Requester:     "Ana Ribeiro",
		Client:        "Acme Energia",
		Project:       "SE Norte",
		InvoiceNumber: "PED-1001",
		ClientNumber:  "C-77",
		Gateway:       "SDG",
	}
}

func device(name, manufacturer, modules string) form.Device {
	return form.Device{Name: name, Manufacturer: manufacturer, Address: "1", Modules: form.Text(modules)}
}

func connection(connType string, devices ...form.Device) form.Connection {
	c := form.NewConnection("Modbus", connType)
	c.IEDs = devices
	return c
}

func TestGeneral(t *testing.T) {
	v := New(nil)

	if err := v.General(validGeneral()); err != nil {
		t.Fatalf("valid general info rejected: %v", err)
	}

	r := validGeneral()
	r.Requester = "Al"
	r.Client = ""
	r.ClientNumber = "  "
	err := v.General(r)

	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"client", "clientNumber", "requester"}, vErr.FieldNames()); diff != "" {
		t.Fatalf("failing fields (-want +got):\n%s", diff)
	}
	if vErr.Field != "requester" {
		t.Fatalf("first failing field = %q", vErr.Field)
	}
}

func TestGeneral_UnknownRequesterDoesNotBlock(t *testing.T) {
	r := validGeneral()
	r.Requester = "Someone Else"
	if err := New(nil).General(r); err != nil {
		t.Fatalf("unknown requester should pass: %v", err)
	}
}

func TestInputs_NoConnections(t *testing.T) {
	err := New(nil).Inputs(validGeneral())

	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(vErr.Message, "no inputs") {
		t.Fatalf("message = %q", vErr.Message)
	}
	if _, ok := vErr.ScrollTarget(); ok {
		t.Fatalf("missing inputs have no connection to scroll to")
	}
}

func TestInputs_ModuleBearingDeviceNeedsModules(t *testing.T) {
	r := validGeneral()
	r.Entradas = []form.Connection{connection(form.ConnectionTypeTCP, device("BM", "Treetech", ""))}

	err := New(nil).Inputs(r)
	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Connection != 1 || vErr.Device != 1 || vErr.Field != "modules" {
		t.Fatalf("unexpected position: %+v", vErr)
	}
	if !strings.Contains(vErr.Message, "BM") || !strings.Contains(vErr.Message, "modules") {
		t.Fatalf("message should cite device and modules: %q", vErr.Message)
	}
	if idx, ok := vErr.ScrollTarget(); !ok || idx != 0 {
		t.Fatalf("scroll target = %d, %v", idx, ok)
	}
}

func TestInputs_Rules(t *testing.T) {
	tests := []struct {
		name      string
		conns     []form.Connection
		wantField string
		wantConn  int
		wantDev   int
	}{
		{
			name:  "valid",
			conns: []form.Connection{connection("71-72", device("BM", "Treetech", "2"), device("TM1", "Treetech", ""))},
		},
		{
			name:      "connection without devices",
			conns:     []form.Connection{connection("71-72", device("TM1", "Treetech", "")), connection("74-75")},
			wantField: "ieds",
			wantConn:  2,
		},
		{
			name:      "device without name",
			conns:     []form.Connection{connection("71-72", device("TM1", "Treetech", ""), device("", "Treetech", ""))},
			wantField: "name",
			wantConn:  1,
			wantDev:   2,
		},
		{
			name:      "device without manufacturer",
			conns:     []form.Connection{connection("71-72", device("Custom", "", ""))},
			wantField: "manufacturer",
			wantConn:  1,
			wantDev:   1,
		},
		{
			name: "restricted type claimed twice",
			conns: []form.Connection{
				connection("71-72", device("TM1", "Treetech", "")),
				connection("71-72", device("TM2", "Treetech", "")),
			},
			wantField: "type",
			wantConn:  2,
		},
		{
			name: "unrestricted type repeats",
			conns: []form.Connection{
				connection(form.ConnectionTypeTCP, device("TM1", "Treetech", "")),
				connection(form.ConnectionTypeTCP, device("TM2", "Treetech", "")),
			},
		},
	}

	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validGeneral()
			r.Entradas = tt.conns
			err := v.Inputs(r)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *form.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tt.wantField || vErr.Connection != tt.wantConn || vErr.Device != tt.wantDev {
				t.Fatalf("got field=%s conn=%d dev=%d, want field=%s conn=%d dev=%d",
					vErr.Field, vErr.Connection, vErr.Device, tt.wantField, tt.wantConn, tt.wantDev)
			}
		})
	}
}

func TestOutputs(t *testing.T) {
	v := New(nil)
	r := validGeneral()
	r.Entradas = []form.Connection{connection("71-72", device("TM1", "Treetech", ""))}

	if err := v.Outputs(r); err == nil || !strings.Contains(err.Error(), "no outputs") {
		t.Fatalf("expected missing outputs error, got %v", err)
	}

	r.Saidas = []form.Connection{connection("71-72", device("TM1", "Treetech", ""))}
	err := v.Outputs(r)
	var vErr *form.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "type" {
		t.Fatalf("expected type partition error, got %v", err)
	}

	r.Saidas = []form.Connection{connection(form.ConnectionTypeTCP, device("COMM4", "Treetech", ""))}
	if err := v.Outputs(r); err == nil || !strings.Contains(err.Error(), "output 1, IED 1 \"COMM4\"") {
		t.Fatalf("expected modules error on output, got %v", err)
	}

	r.Saidas[0].IEDs[0].Modules = "4"
	if err := v.Outputs(r); err != nil {
		t.Fatalf("valid outputs rejected: %v", err)
	}
}

func TestSection_IsIdempotent(t *testing.T) {
	v := New(nil)
	r := validGeneral()
	r.Entradas = []form.Connection{connection(form.ConnectionTypeTCP, device("BM", "Treetech", ""))}

	for _, s := range []Section{SectionGeneral, SectionInputs, SectionOutputs, SectionComments} {
		first := v.Section(s, r)
		second := v.Section(s, r)
		if (first == nil) != (second == nil) {
			t.Fatalf("%s: results differ: %v vs %v", s, first, second)
		}
		if first != nil && first.Error() != second.Error() {
			t.Fatalf("%s: messages differ: %q vs %q", s, first, second)
		}
	}
}

func TestApproval(t *testing.T) {
	v := New(nil)
	valid := form.ApprovalForm{
		Approval:     form.ApprovalHomologation,
		Requester:    "Ana Ribeiro",
		Client:       "Interno",
		Manufacturer: "ACME Relays",
		URL:          "https://acme.example/manual.pdf",
		Name:         "R1",
		Type:         "Monitor de bucha",
		DocumentType: "Manual",
		Protocols:    "IEC61850",
	}
	if err := v.Approval(valid); err != nil {
		t.Fatalf("valid approval rejected: %v", err)
	}

	bad := valid
	bad.URL = "not a url"
	bad.Protocols = ""
	err := v.Approval(bad)
	var vErr *form.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"protocols", "url"}, vErr.FieldNames()); diff != "" {
		t.Fatalf("failing fields (-want +got):\n%s", diff)
	}
}
