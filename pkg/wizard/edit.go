package wizard

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/options"
)

var (
	// ErrNotConnectionStep is returned when a connection edit names a step
	// other than Inputs or Outputs.
	ErrNotConnectionStep = errors.New("wizard: step has no connections")
	// ErrOutOfRange is returned for a connection or device index that does
	// not exist.
	ErrOutOfRange = errors.New("wizard: index out of range")
	// ErrOptionUnavailable is returned when a value is not among the
	// options currently offered.
	ErrOptionUnavailable = errors.New("wizard: option not available")
)

// SetGeneral applies the general-info fields of p to the working form. Email
// and department are derived from the requester and are never taken from p.
func (c *Controller) SetGeneral(p form.Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	general := form.Patch{
		Requester:       p.Requester,
		Client:          p.Client,
		Project:         p.Project,
		InvoiceNumber:   p.InvoiceNumber,
		ClientNumber:    p.ClientNumber,
		Gateway:         p.Gateway,
		SigmaConnection: p.SigmaConnection,
	}
	c.draft = general.Apply(c.draft)
	if p.Requester != nil {
		c.draft.Email, c.draft.Department = options.ResolveRequester(c.catalog, c.draft.Requester)
	}
}

// SetRequester sets the requester and resolves email and department.
func (c *Controller) SetRequester(name string) {
	c.SetGeneral(form.Patch{Requester: form.String(name)})
}

// SetComments sets the free-text comment of the working form.
func (c *Controller) SetComments(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Comments = text
}

// Connections returns a copy of the connections of list.
func (c *Controller) Connections(list Step) ([]form.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns, err := c.connections(list)
	if err != nil {
		return nil, err
	}
	out := make([]form.Connection, len(*conns))
	for i, conn := range *conns {
		out[i] = conn.Clone()
	}
	return out, nil
}

// TypeOptions lists the connection types connection index of list may take.
// Pass -1 for a connection not added yet.
func (c *Controller) TypeOptions(list Step, index int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typeOptions(list, index)
}

// AddConnection appends a connection with serial defaults and no protocol
// or type chosen yet, and returns its index.
func (c *Controller) AddConnection(list Step) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns, err := c.connections(list)
	if err != nil {
		return -1, err
	}
	*conns = append(*conns, form.NewConnection("", ""))
	c.logger.Debug("connection added", zap.Stringer("list", list), zap.Int("count", len(*conns)))
	return len(*conns) - 1, nil
}

// RemoveConnection deletes connection index from list.
func (c *Controller) RemoveConnection(list Step, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns, err := c.connections(list)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*conns) {
		return outOfRange("connection", index)
	}
	*conns = append((*conns)[:index:index], (*conns)[index+1:]...)
	return nil
}

// SetConnectionType changes the type of a connection. Types not offered for
// that connection are rejected.
func (c *Controller) SetConnectionType(list Step, index int, connType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	offered, _ := c.typeOptions(list, index)
	if !contains(offered, connType) {
		return fmt.Errorf("%w: connection type %q", ErrOptionUnavailable, connType)
	}
	conn.Type = connType
	return nil
}

// SetProtocol sets the protocol of a connection. Outputs also get the
// protocol's default port.
func (c *Controller) SetProtocol(list Step, index int, protocol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	conn.Protocol = protocol
	if list == Outputs {
		conn.Port = options.DefaultPort(c.catalog, protocol)
	}
	return nil
}

// SetEndpoint sets the TCP/IP address and port of a connection.
func (c *Controller) SetEndpoint(list Step, index int, ip, port string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	conn.IP, conn.Port = ip, port
	return nil
}

// SetSerial sets the serial line parameters of a connection.
func (c *Controller) SetSerial(list Step, index int, baudRate, dataBits, parity, stopBits string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	conn.BaudRate, conn.DataBits, conn.Parity, conn.StopBits = baudRate, dataBits, parity, stopBits
	return nil
}

// AddDevice appends an empty device to a connection and returns its index.
func (c *Controller) AddDevice(list Step, index int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return -1, err
	}
	conn.IEDs = append(conn.IEDs, form.Device{})
	return len(conn.IEDs) - 1, nil
}

// SetDevice replaces a device. When the name matches a known model or a
// device already entered on the inputs, the manufacturer is filled in.
func (c *Controller) SetDevice(list Step, index, device int, dev form.Device) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	if device < 0 || device >= len(conn.IEDs) {
		return outOfRange("device", device)
	}
	if manufacturer, ok := options.Manufacturer(c.catalog, c.draft, dev.Name); ok {
		dev.Manufacturer = manufacturer
	}
	conn.IEDs[device] = dev
	return nil
}

// RemoveDevice deletes a device from a connection.
func (c *Controller) RemoveDevice(list Step, index, device int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	if device < 0 || device >= len(conn.IEDs) {
		return outOfRange("device", device)
	}
	conn.IEDs = append(conn.IEDs[:device:device], conn.IEDs[device+1:]...)
	return nil
}

// CopyDevice appends a duplicate of a device addressed after the last one.
func (c *Controller) CopyDevice(list Step, index, device int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(list, index)
	if err != nil {
		return err
	}
	if device < 0 || device >= len(conn.IEDs) {
		return outOfRange("device", device)
	}
	conn.IEDs = options.CopyDevice(conn.IEDs, device)
	return nil
}

// ReplicateInputs replaces the devices of output index with every input
// device, renumbered from 1.
func (c *Controller) ReplicateInputs(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connection(Outputs, index)
	if err != nil {
		return err
	}
	conn.IEDs = options.ReplicateInputs(c.draft)
	return nil
}

func (c *Controller) connections(list Step) (*[]form.Connection, error) {
	switch list {
	case Inputs:
		return &c.draft.Entradas, nil
	case Outputs:
		return &c.draft.Saidas, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotConnectionStep, list)
	}
}

func (c *Controller) connection(list Step, index int) (*form.Connection, error) {
	conns, err := c.connections(list)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(*conns) {
		return nil, outOfRange("connection", index)
	}
	return &(*conns)[index], nil
}

func (c *Controller) typeOptions(list Step, index int) ([]string, error) {
	switch list {
	case Inputs:
		return options.InputTypeOptions(c.catalog, c.draft, index), nil
	case Outputs:
		return options.OutputTypeOptions(c.catalog, c.draft), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotConnectionStep, list)
	}
}

func outOfRange(what string, index int) error {
	return fmt.Errorf("%w: %s %d", ErrOutOfRange, what, index+1)
}
