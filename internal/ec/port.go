package ec

// PortIO gives byte wide access to x86 I/O ports.
type PortIO interface {
	ReadPort(port uint16) (byte, error)
	WritePort(port uint16, value byte) error
	Close() error
}
