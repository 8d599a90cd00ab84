//go:build linux

package ec

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const DevPortPath = "/dev/port"

// DevPort accesses I/O ports through the /dev/port character device,
// where the file offset is the port address.
type DevPort struct {
	fd   int
	path string
}

func OpenDevPort(path string) (*DevPort, error) {
	if len(path) <= 0 {
		path = DevPortPath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return nil, fmt.Errorf("%w: %s: %v", ErrPortAccessDenied, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DevPort{fd: fd, path: path}, nil
}

func (p *DevPort) ReadPort(port uint16) (byte, error) {
	buf := make([]byte, 1)
	n, err := unix.Pread(p.fd, buf, int64(port))
	if err != nil {
		return 0, fmt.Errorf("read port 0x%x: %w", port, err)
	}
	if n != 1 {
		return 0, fmt.Errorf("read port 0x%x: short read", port)
	}
	return buf[0], nil
}

func (p *DevPort) WritePort(port uint16, value byte) error {
	n, err := unix.Pwrite(p.fd, []byte{value}, int64(port))
	if err != nil {
		return fmt.Errorf("write port 0x%x: %w", port, err)
	}
	if n != 1 {
		return fmt.Errorf("write port 0x%x: short write", port)
	}
	return nil
}

func (p *DevPort) Close() error {
	return unix.Close(p.fd)
}
