package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/form"
)

func conn(protocol, connType string, devices ...form.Device) form.Connection {
	c := form.NewConnection(protocol, connType)
	c.IEDs = devices
	return c
}

func TestResolveRequester(t *testing.T) {
	c := catalog.Default()

	email, dept := ResolveRequester(c, "Bruno Carvalho")
	if email != "bruno.carvalho@treetech.com.br" || dept != "Comercial" {
		t.Fatalf("unexpected lookup: %q %q", email, dept)
	}

	email, dept = ResolveRequester(c, "Nobody")
	if email != "" || dept != "" {
		t.Fatalf("unknown requester should resolve to empty strings")
	}
}

func TestInputTypeOptions_RestrictedExclusivity(t *testing.T) {
	c := catalog.Default()
	r := form.RequestForm{Entradas: []form.Connection{
		conn("Modbus", "71-72"),
		conn("Modbus", form.ConnectionTypeTCP),
	}}

	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{name: "new connection", index: -1, want: []string{"71-72-73", "74-75", "TCP/IP"}},
		{name: "owner keeps its type", index: 0, want: []string{"71-72", "71-72-73", "74-75", "TCP/IP"}},
		{name: "sibling loses restricted type", index: 1, want: []string{"71-72-73", "74-75", "TCP/IP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InputTypeOptions(c, r, tt.index)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("options (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInputTypeOptions_UnrestrictedTypesRepeat(t *testing.T) {
	c := catalog.Default()
	r := form.RequestForm{Entradas: []form.Connection{conn("Modbus", form.ConnectionTypeTCP)}}

	got := InputTypeOptions(c, r, -1)
	found := false
	for _, typ := range got {
		if typ == form.ConnectionTypeTCP {
			found = true
		}
	}
	if !found {
		t.Fatalf("TCP/IP is not restricted and must stay available: %v", got)
	}
}

func TestOutputTypeOptions_Partition(t *testing.T) {
	c := catalog.Default()
	r := form.RequestForm{Entradas: []form.Connection{
		conn("Modbus", form.ConnectionTypeTCP),
		conn("DNP3", "74-75"),
	}}

	got := OutputTypeOptions(c, r)
	want := []string{"71-72", "71-72-73"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output options (-want +got):\n%s", diff)
	}
	for _, in := range r.Entradas {
		for _, out := range got {
			if in.Type == out {
				t.Fatalf("output options include input type %q", out)
			}
		}
	}
}

func TestDevicePool(t *testing.T) {
	c := catalog.Default()

	t.Run("falls back to catalog", func(t *testing.T) {
		got := DevicePool(c, form.RequestForm{})
		if len(got) != len(c.HomeModels)+len(c.ThirdPartyModels) {
			t.Fatalf("expected full catalog, got %d models", len(got))
		}
	})

	t.Run("dedupes entered devices", func(t *testing.T) {
		r := form.RequestForm{Entradas: []form.Connection{
			conn("Modbus", "71-72",
				form.Device{Name: "TM1", Manufacturer: "Treetech"},
				form.Device{Name: "SEL-751", Manufacturer: "SEL"},
			),
			conn("DNP3", "74-75",
				form.Device{Name: "TM1", Manufacturer: "Treetech"},
				form.Device{Name: "TM1", Manufacturer: "Other"},
			),
		}}
		got := DevicePool(c, r)
		want := []catalog.Model{
			{Name: "TM1", Manufacturer: "Treetech"},
			{Name: "SEL-751", Manufacturer: "SEL"},
			{Name: "TM1", Manufacturer: "Other"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("pool (-want +got):\n%s", diff)
		}

		home, third := GroupPool(c, got)
		if len(home) != 1 || len(third) != 2 {
			t.Fatalf("unexpected grouping: home=%v third=%v", home, third)
		}
	})
}

func TestManufacturer(t *testing.T) {
	c := catalog.Default()
	r := form.RequestForm{Entradas: []form.Connection{
		conn("Modbus", "71-72", form.Device{Name: "Custom Relay", Manufacturer: "ACME"}),
	}}

	if m, ok := Manufacturer(c, r, "SEL-2414"); !ok || m != "SEL" {
		t.Fatalf("catalog lookup = %q, %v", m, ok)
	}
	if m, ok := Manufacturer(c, r, "Custom Relay"); !ok || m != "ACME" {
		t.Fatalf("pool lookup = %q, %v", m, ok)
	}
	if _, ok := Manufacturer(c, r, "Unknown"); ok {
		t.Fatalf("unknown name should not resolve")
	}
}

func TestDefaultPort(t *testing.T) {
	c := catalog.Default()
	if got := DefaultPort(c, "DNP3"); got != "20000" {
		t.Fatalf("DNP3 port = %q", got)
	}
	if got := DefaultPort(c, "Unknown"); got != "" {
		t.Fatalf("unknown protocol port = %q", got)
	}
}

func TestReplicateAndCopy(t *testing.T) {
	r := form.RequestForm{Entradas: []form.Connection{
		conn("Modbus", "71-72", form.Device{Name: "BM", Manufacturer: "Treetech", Address: "7", Modules: "2"}),
		conn("DNP3", "74-75", form.Device{Name: "TM1", Manufacturer: "Treetech", Address: "9"}),
	}}

	replicated := ReplicateInputs(r)
	if len(replicated) != 2 || replicated[0].Address != "1" || replicated[1].Address != "2" {
		t.Fatalf("unexpected replication: %+v", replicated)
	}
	if replicated[0].Modules != "2" {
		t.Fatalf("modules should be carried over")
	}
	if r.Entradas[0].IEDs[0].Address != "7" {
		t.Fatalf("replication mutated the input")
	}

	copied := CopyDevice(replicated, 0)
	if len(copied) != 3 || copied[2].Name != "BM" || copied[2].Address != "3" {
		t.Fatalf("unexpected copy: %+v", copied)
	}
	if got := CopyDevice(replicated, 5); len(got) != 2 {
		t.Fatalf("out of range copy should be a no-op")
	}
}

func TestDerive_IsIdempotent(t *testing.T) {
	c := catalog.Default()
	r := form.RequestForm{
		Requester: "Ana Ribeiro",
		Entradas:  []form.Connection{conn("Modbus", "71-72", form.Device{Name: "SEL-751", Manufacturer: "SEL"})},
		Saidas:    []form.Connection{conn("DNP3", form.ConnectionTypeTCP)},
	}

	first := Derive(c, r)
	second := Derive(c, r)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("derive not idempotent (-first +second):\n%s", diff)
	}
	if !first.CanSkipToEnd {
		t.Fatalf("stored outputs should allow skipping to the end")
	}
	if diff := cmp.Diff([]string{"DNP3"}, first.OutputUsage); diff != "" {
		t.Fatalf("output usage (-want +got):\n%s", diff)
	}
}
