package form

// ConnectionTypeTCP selects the TCP/IP fields of a Connection. Every other type
// value names a serial terminal on the gateway.
const ConnectionTypeTCP = "TCP/IP"

// Serial defaults applied to new connections.
const (
	DefaultBaudRate = "9600"
	DefaultDataBits = "8"
	DefaultParity   = "None"
	DefaultStopBits = "1"
)

// DefaultGateway is preselected on an empty request.
const DefaultGateway = "SDG"

// Device is one IED attached to a connection.
type Device struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Address      Text   `json:"address"`
	Modules      Text   `json:"modules"`
	Optional     string `json:"optional"`
}

// Connection describes one input or output link and the devices behind it.
type Connection struct {
	Protocol string   `json:"protocolo"`
	Type     string   `json:"type"`
	IP       string   `json:"ip"`
	Port     string   `json:"port"`
	BaudRate string   `json:"baudRate"`
	DataBits string   `json:"dataBits"`
	Parity   string   `json:"parity"`
	StopBits string   `json:"stopBits"`
	IEDs     []Device `json:"ieds"`
}

// NewConnection returns a connection with the serial defaults filled in.
func NewConnection(protocol, connType string) Connection {
	return Connection{
		Protocol: protocol,
		Type:     connType,
		BaudRate: DefaultBaudRate,
		DataBits: DefaultDataBits,
		Parity:   DefaultParity,
		StopBits: DefaultStopBits,
		IEDs:     []Device{},
	}
}

// IsTCP reports whether the TCP/IP fields are the active ones.
func (c Connection) IsTCP() bool {
	return c.Type == ConnectionTypeTCP
}

// Clone returns a copy that shares no slices with c.
func (c Connection) Clone() Connection {
	out := c
	if c.IEDs != nil {
		out.IEDs = make([]Device, len(c.IEDs))
		copy(out.IEDs, c.IEDs)
	}
	return out
}

// RequestForm is the root aggregate of the application request wizard.
type RequestForm struct {
	Requester       string       `json:"requester"`
	Email           string       `json:"email"`
	Department      string       `json:"departament"`
	Client          string       `json:"client"`
	Project         string       `json:"project"`
	InvoiceNumber   string       `json:"invoiceNumber"`
	ClientNumber    string       `json:"clientNumber"`
	Gateway         string       `json:"gateway"`
	SigmaConnection string       `json:"sigmaConnection"`
	Entradas        []Connection `json:"entradas"`
	Saidas          []Connection `json:"saidas"`
	Comments        string       `json:"comments"`
}

// Empty returns the template a cleared session starts from.
func Empty() RequestForm {
	return RequestForm{Gateway: DefaultGateway}
}

// HasOutputs reports whether output connections were already committed.
func (r RequestForm) HasOutputs() bool {
	return len(r.Saidas) > 0
}

// Clone returns a deep copy of the form.
func (r RequestForm) Clone() RequestForm {
	out := r
	out.Entradas = cloneConnections(r.Entradas)
	out.Saidas = cloneConnections(r.Saidas)
	return out
}

func cloneConnections(in []Connection) []Connection {
	if in == nil {
		return nil
	}
	out := make([]Connection, len(in))
	for i, conn := range in {
		out[i] = conn.Clone()
	}
	return out
}
