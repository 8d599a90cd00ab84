package ec

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type Field string

const (
	FieldCpuTemp Field = "cpu_temp"
	FieldGpuTemp Field = "gpu_temp"
	FieldFanDuty Field = "duty"
	FieldFanRpm  Field = "rpms"
)

// Snapshot is the telemetry of one full register read.
// Fields listed in Invalid could not be read and hold no meaningful value.
type Snapshot struct {
	FanDuty int     `json:"duty"`
	FanRpm  int     `json:"rpms"`
	CpuTemp int     `json:"cpu_temp_cels"`
	GpuTemp int     `json:"gpu_temp_cels"`
	Invalid []Field `json:"invalid,omitempty"`
}

func (s Snapshot) IsValid(field Field) bool {
	return !slices.Contains(s.Invalid, field)
}

// ControlTemperature returns the hottest valid temperature of this snapshot.
// ok is false if neither temperature could be read.
func (s Snapshot) ControlTemperature() (temp int, ok bool) {
	if s.IsValid(FieldCpuTemp) {
		temp, ok = s.CpuTemp, true
	}
	if s.IsValid(FieldGpuTemp) && (!ok || s.GpuTemp > temp) {
		temp, ok = s.GpuTemp, true
	}
	return temp, ok
}

func (s Snapshot) String() string {
	return fmt.Sprintf("CPU=%d°C, GPU=%d°C, duty=%d%%, rpm=%d", s.CpuTemp, s.GpuTemp, s.FanDuty, s.FanRpm)
}

// DecodeRegisterBlock extracts a Snapshot from a full EC register dump.
func DecodeRegisterBlock(block []byte) (Snapshot, error) {
	if len(block) != RegisterBlockSize {
		return Snapshot{}, fmt.Errorf("%w: got %d bytes, expected %d", ErrTelemetryReadSizeMismatch, len(block), RegisterBlockSize)
	}
	return Snapshot{
		CpuTemp: int(block[RegisterCpuTemp]),
		GpuTemp: int(block[RegisterGpuTemp]),
		FanDuty: RawToDuty(block[RegisterFanDuty]),
		FanRpm:  DecodeRpm(block[RegisterFanRpmHi], block[RegisterFanRpmLo]),
	}, nil
}
