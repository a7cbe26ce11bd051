package options

import "github.com/goliatone/go-iedform/pkg/form"

// ReplicateInputs copies every device of every input connection, in order,
// renumbering addresses from 1.
func ReplicateInputs(r form.RequestForm) []form.Device {
	out := []form.Device{}
	for _, conn := range r.Entradas {
		for _, dev := range conn.IEDs {
			dev.Address = form.Itoa(len(out) + 1)
			out = append(out, dev)
		}
	}
	return out
}

// CopyDevice appends a copy of devices[index] addressed after the last
// device. Out-of-range indexes return devices unchanged.
func CopyDevice(devices []form.Device, index int) []form.Device {
	out := append([]form.Device(nil), devices...)
	if index < 0 || index >= len(devices) {
		return out
	}
	dup := devices[index]
	dup.Address = form.Itoa(len(devices) + 1)
	return append(out, dup)
}
