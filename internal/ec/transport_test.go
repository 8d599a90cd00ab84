package ec

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestTransport_ReadRegister(t *testing.T) {
	// GIVEN
	port := newFakeEc(map[byte]byte{RegisterCpuTemp: 62})
	transport := newTestTransport(port)

	// WHEN
	result, err := transport.ReadRegister(RegisterCpuTemp)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, byte(62), result)
	assert.Equal(t, []portOp{
		{write: true, port: CommandPort, value: CommandRead},
		{write: true, port: DataPort, value: RegisterCpuTemp},
	}, port.writes())
}

func TestTransport_ReadRegister_WaitsForInputBuffer(t *testing.T) {
	// GIVEN
	port := newFakeEc(map[byte]byte{RegisterGpuTemp: 55})
	port.busyStatusReads = 5
	transport := newTestTransport(port)
	var sleeps []time.Duration
	transport.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}

	// WHEN
	result, err := transport.ReadRegister(RegisterGpuTemp)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, byte(55), result)
	assert.Len(t, sleeps, 5)
	assert.Equal(t, DefaultWaitPolicy.Interval, sleeps[0])
}

func TestTransport_ReadRegister_Timeout(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.outputNeverFull = true
	transport := newTestTransport(port)

	// WHEN
	_, err := transport.ReadRegister(RegisterFanDuty)

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	var timeoutErr *HandshakeTimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, CommandPort, timeoutErr.Port)
	assert.Equal(t, FlagOutputBufferFull, timeoutErr.Flag)
	assert.True(t, timeoutErr.Expected)
}

func TestTransport_WaitForFlag_GivesUpAfterPolicyAttempts(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.alwaysBusy = true
	transport := newTestTransport(port)
	sleeps := 0
	transport.sleep = func(d time.Duration) {
		sleeps++
	}

	// WHEN
	err := transport.waitForFlag(CommandPort, FlagInputBufferFull, false)

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Equal(t, DefaultWaitPolicy.Attempts, sleeps)
	assert.Equal(t, DefaultWaitPolicy.Attempts+1, port.statusReads)
}

func TestTransport_WaitForFlag_CustomPolicy(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.alwaysBusy = true
	transport := NewTransportWithPolicy(port, WaitPolicy{Attempts: 3, Interval: time.Microsecond})

	// WHEN
	err := transport.waitForFlag(CommandPort, FlagInputBufferFull, false)

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Equal(t, 4, port.statusReads)
}

func TestTransport_WriteDuty(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	transport := newTestTransport(port)

	// WHEN
	err := transport.WriteDuty(50)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []portOp{
		{write: true, port: CommandPort, value: CommandWriteFan},
		{write: true, port: DataPort, value: FanDutySubRegister},
		{write: true, port: DataPort, value: 128},
	}, port.writes())
	// one wait before each phase and a final one
	assert.Equal(t, 4, port.statusReads)
}

func TestTransport_WriteDuty_InvalidArgument(t *testing.T) {
	for _, percent := range []int{-1, 101, 255, -100} {
		// GIVEN
		port := newFakeEc(nil)
		transport := newTestTransport(port)

		// WHEN
		err := transport.WriteDuty(percent)

		// THEN
		assert.ErrorIs(t, err, ErrInvalidDutyArgument)
		assert.Empty(t, port.ops, "percent %d", percent)
	}
}

func TestTransport_WriteDuty_FinalWaitTimeout(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.busyAfterWrites = 3
	transport := newTestTransport(port)

	// WHEN
	err := transport.WriteDuty(30)

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Len(t, port.writes(), 3)
}

func TestTransport_WriteDuty_AbortsOnTimeout(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.alwaysBusy = true
	transport := newTestTransport(port)

	// WHEN
	err := transport.WriteDuty(30)

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Empty(t, port.writes())
}

func TestTransport_Close(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	transport := newTestTransport(port)

	// WHEN
	err := transport.Close()

	// THEN
	assert.NoError(t, err)
	assert.True(t, port.closed)
}
