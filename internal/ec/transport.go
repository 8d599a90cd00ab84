package ec

import (
	"sync"
	"time"
)

// Transport performs single register transactions with the EC handshake protocol.
//
// The EC has exactly one handshake state machine, so at most one transaction
// may be in flight at any time. Transport serializes its own callers, but
// anything else touching the same ports (another process, a second Transport)
// can still corrupt a transaction.
type Transport struct {
	port   PortIO
	policy WaitPolicy
	sleep  func(time.Duration)

	mu sync.Mutex
}

func NewTransport(port PortIO) *Transport {
	return NewTransportWithPolicy(port, DefaultWaitPolicy)
}

func NewTransportWithPolicy(port PortIO, policy WaitPolicy) *Transport {
	return &Transport{
		port:   port,
		policy: policy,
		sleep:  time.Sleep,
	}
}

// OpenTransport opens the I/O port device at path (DevPortPath if empty).
// Fails with ErrPortAccessDenied if the process lacks the required privileges.
func OpenTransport(path string) (*Transport, error) {
	port, err := OpenDevPort(path)
	if err != nil {
		return nil, err
	}
	return NewTransport(port), nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port.Close()
}

// ReadRegister reads a single EC register.
func (t *Transport) ReadRegister(address byte) (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.waitForFlag(CommandPort, FlagInputBufferFull, false); err != nil {
		return 0, err
	}
	if err := t.port.WritePort(CommandPort, CommandRead); err != nil {
		return 0, err
	}

	if err := t.waitForFlag(CommandPort, FlagInputBufferFull, false); err != nil {
		return 0, err
	}
	if err := t.port.WritePort(DataPort, address); err != nil {
		return 0, err
	}

	if err := t.waitForFlag(CommandPort, FlagOutputBufferFull, true); err != nil {
		return 0, err
	}
	return t.port.ReadPort(DataPort)
}

// WriteDuty sets the fan duty in percent [0..100].
// Invalid values are rejected without any port access.
func (t *Transport) WriteDuty(percent int) error {
	if err := ValidateDuty(percent); err != nil {
		return err
	}
	return t.write(CommandWriteFan, FanDutySubRegister, DutyToRaw(percent))
}

func (t *Transport) write(command byte, register byte, value byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, step := range []struct {
		port  uint16
		value byte
	}{
		{CommandPort, command},
		{DataPort, register},
		{DataPort, value},
	} {
		if err := t.waitForFlag(CommandPort, FlagInputBufferFull, false); err != nil {
			return err
		}
		if err := t.port.WritePort(step.port, step.value); err != nil {
			return err
		}
	}

	// the EC has only accepted the value once it drained its input buffer
	return t.waitForFlag(CommandPort, FlagInputBufferFull, false)
}

// waitForFlag polls the given status bit until it matches expected,
// giving up after policy.Attempts additional reads.
func (t *Transport) waitForFlag(port uint16, flag uint8, expected bool) error {
	status, err := t.port.ReadPort(port)
	if err != nil {
		return err
	}
	for i := 0; i < t.policy.Attempts; i++ {
		if flagSet(status, flag) == expected {
			return nil
		}
		t.sleep(t.policy.Interval)
		status, err = t.port.ReadPort(port)
		if err != nil {
			return err
		}
	}
	if flagSet(status, flag) == expected {
		return nil
	}
	return &HandshakeTimeoutError{
		Port:     port,
		Flag:     flag,
		Expected: expected,
		Status:   status,
	}
}

func flagSet(status byte, flag uint8) bool {
	return (status>>flag)&0x1 == 1
}
