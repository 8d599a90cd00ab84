//go:build !linux

package ec

import "fmt"

const DevPortPath = "/dev/port"

type DevPort struct{}

func OpenDevPort(path string) (*DevPort, error) {
	return nil, fmt.Errorf("%w: I/O port access is only supported on linux", ErrPortAccessDenied)
}

func (p *DevPort) ReadPort(port uint16) (byte, error) {
	return 0, ErrPortAccessDenied
}

func (p *DevPort) WritePort(port uint16, value byte) error {
	return ErrPortAccessDenied
}

func (p *DevPort) Close() error {
	return nil
}
