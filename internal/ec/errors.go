package ec

import (
	"errors"
	"fmt"
)

var (
	ErrPortAccessDenied          = errors.New("access to EC I/O ports denied")
	ErrHandshakeTimeout          = errors.New("EC handshake timed out")
	ErrInvalidDutyArgument       = errors.New("invalid fan duty")
	ErrTelemetryReadSizeMismatch = errors.New("unexpected EC register block size")
)

// HandshakeTimeoutError describes which status flag never reached its expected value.
type HandshakeTimeoutError struct {
	Port     uint16
	Flag     uint8
	Expected bool
	// Status is the last value read from Port
	Status byte
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("%s: port 0x%x, status 0x%x, flag %d, expected %v",
		ErrHandshakeTimeout, e.Port, e.Status, e.Flag, e.Expected)
}

func (e *HandshakeTimeoutError) Unwrap() error {
	return ErrHandshakeTimeout
}
