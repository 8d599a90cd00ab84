package ec

import "time"

// I/O ports of the embedded controller
const (
	CommandPort uint16 = 0x66
	DataPort    uint16 = 0x62
)

// status register bits
const (
	FlagOutputBufferFull uint8 = 0
	FlagInputBufferFull  uint8 = 1
)

const (
	CommandRead     byte = 0x80
	CommandWriteFan byte = 0x99

	// FanDutySubRegister selects the fan duty target of CommandWriteFan
	FanDutySubRegister byte = 0x01
)

// Register offsets, valid for both the port handshake and the debugfs register dump.
const (
	RegisterCpuTemp  byte = 0x07
	RegisterGpuTemp  byte = 0xCD
	RegisterFanDuty  byte = 0xCE
	RegisterFanRpmHi byte = 0xD0
	RegisterFanRpmLo byte = 0xD1

	RegisterBlockSize = 0x100
)

const (
	MinDuty = 0
	MaxDuty = 100

	// rpmDividend is specific to the fan tachometer of this EC
	rpmDividend = 2156220
)

// WaitPolicy bounds the busy wait on a status flag.
type WaitPolicy struct {
	Attempts int
	Interval time.Duration
}

var DefaultWaitPolicy = WaitPolicy{
	Attempts: 100,
	Interval: 1 * time.Millisecond,
}
