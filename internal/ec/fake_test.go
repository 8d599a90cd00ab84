package ec

import (
	"errors"
	"time"
)

type portOp struct {
	write bool
	port  uint16
	value byte
}

// fakeEc emulates the EC handshake on top of PortIO
type fakeEc struct {
	registers map[byte]byte

	// status reads reporting a busy input buffer before it clears
	busyStatusReads int
	// never signal a full output buffer
	outputNeverFull bool
	// every status read reports a busy input buffer
	alwaysBusy bool
	// the input buffer stays busy once this many writes happened, 0 disables
	busyAfterWrites int
	// addresses whose read never completes
	stuckRegisters map[byte]bool

	ops         []portOp
	statusReads int
	lastCommand byte
	address     *byte
	written     []byte
	closed      bool
}

func newFakeEc(registers map[byte]byte) *fakeEc {
	if registers == nil {
		registers = map[byte]byte{}
	}
	return &fakeEc{registers: registers, stuckRegisters: map[byte]bool{}}
}

func (f *fakeEc) ReadPort(port uint16) (byte, error) {
	f.ops = append(f.ops, portOp{port: port})
	switch port {
	case CommandPort:
		f.statusReads++
		var status byte
		busyAfterWrites := f.busyAfterWrites > 0 && len(f.writes()) >= f.busyAfterWrites
		if f.alwaysBusy || busyAfterWrites || f.statusReads <= f.busyStatusReads {
			status |= 1 << FlagInputBufferFull
		}
		stuck := f.address != nil && f.stuckRegisters[*f.address]
		if !f.outputNeverFull && !stuck {
			status |= 1 << FlagOutputBufferFull
		}
		return status, nil
	case DataPort:
		if f.address == nil {
			return 0, errors.New("no register selected")
		}
		return f.registers[*f.address], nil
	}
	return 0, errors.New("unexpected port")
}

func (f *fakeEc) WritePort(port uint16, value byte) error {
	f.ops = append(f.ops, portOp{write: true, port: port, value: value})
	switch port {
	case CommandPort:
		f.lastCommand = value
		f.address = nil
		f.written = nil
	case DataPort:
		if f.lastCommand == CommandRead && f.address == nil {
			address := value
			f.address = &address
		} else {
			f.written = append(f.written, value)
		}
	}
	return nil
}

func (f *fakeEc) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEc) writes() []portOp {
	var result []portOp
	for _, op := range f.ops {
		if op.write {
			result = append(result, op)
		}
	}
	return result
}

func newTestTransport(port PortIO) *Transport {
	t := NewTransport(port)
	t.sleep = func(d time.Duration) {}
	return t
}
