package ec

import (
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func TestPortSource_Read(t *testing.T) {
	// GIVEN
	port := newFakeEc(map[byte]byte{
		RegisterCpuTemp:  72,
		RegisterGpuTemp:  66,
		RegisterFanDuty:  102,
		RegisterFanRpmHi: 0x08,
		RegisterFanRpmLo: 0x34,
	})
	source := &PortSource{Reader: newTestTransport(port)}

	// WHEN
	snapshot, err := source.Read()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Snapshot{CpuTemp: 72, GpuTemp: 66, FanDuty: 40, FanRpm: 1026}, snapshot)
}

func TestPortSource_Read_PartialTimeout(t *testing.T) {
	// GIVEN
	port := newFakeEc(map[byte]byte{
		RegisterCpuTemp: 72,
		RegisterGpuTemp: 66,
		RegisterFanDuty: 102,
	})
	port.stuckRegisters[RegisterGpuTemp] = true
	port.stuckRegisters[RegisterFanRpmLo] = true
	source := &PortSource{Reader: newTestTransport(port)}

	// WHEN
	snapshot, err := source.Read()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []Field{FieldGpuTemp, FieldFanRpm}, snapshot.Invalid)
	assert.True(t, snapshot.IsValid(FieldCpuTemp))
	assert.True(t, snapshot.IsValid(FieldFanDuty))
	assert.Equal(t, 72, snapshot.CpuTemp)
	assert.Equal(t, 40, snapshot.FanDuty)
	assert.Equal(t, 0, snapshot.FanRpm)
	temp, ok := snapshot.ControlTemperature()
	assert.True(t, ok)
	assert.Equal(t, 72, temp)
}

func TestPortSource_Read_AllTimeout(t *testing.T) {
	// GIVEN
	port := newFakeEc(nil)
	port.outputNeverFull = true
	source := &PortSource{Reader: newTestTransport(port)}

	// WHEN
	snapshot, err := source.Read()

	// THEN
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Len(t, snapshot.Invalid, 4)
}

func TestDebugFsSource_Read(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "io")
	err := os.WriteFile(path, createRegisterBlock(), 0600)
	assert.NoError(t, err)
	source := &DebugFsSource{Path: path}

	// WHEN
	snapshot, err := source.Read()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Snapshot{CpuTemp: 61, GpuTemp: 48, FanDuty: 30, FanRpm: 1026}, snapshot)
}

func TestDebugFsSource_Read_SizeMismatch(t *testing.T) {
	for _, size := range []int{16, RegisterBlockSize + 16} {
		// GIVEN
		path := filepath.Join(t.TempDir(), "io")
		err := os.WriteFile(path, make([]byte, size), 0600)
		assert.NoError(t, err)
		source := &DebugFsSource{Path: path}

		// WHEN
		_, err = source.Read()

		// THEN
		assert.ErrorIs(t, err, ErrTelemetryReadSizeMismatch)
	}
}

func TestDebugFsSource_Read_MissingFile(t *testing.T) {
	// GIVEN
	source := &DebugFsSource{Path: filepath.Join(t.TempDir(), "missing")}

	// WHEN
	_, err := source.Read()

	// THEN
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSource(t *testing.T) {
	// GIVEN
	transport := newTestTransport(newFakeEc(nil))

	// WHEN
	portSource, portErr := NewSource(SourceTypePort, transport, "")
	debugFsSource, debugFsErr := NewSource(SourceTypeDebugFs, nil, "/tmp/io")
	_, missingTransportErr := NewSource(SourceTypePort, nil, "")
	_, unknownErr := NewSource("smbus", nil, "")

	// THEN
	assert.NoError(t, portErr)
	assert.Equal(t, SourceTypePort, portSource.GetId())
	assert.NoError(t, debugFsErr)
	assert.Equal(t, SourceTypeDebugFs, debugFsSource.GetId())
	assert.Error(t, missingTransportErr)
	assert.Error(t, unknownErr)
}
