package cmd

import (
	"testing"

	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/persistence"
	"github.com/stretchr/testify/assert"
)

func TestLadderSweeps(t *testing.T) {
	// WHEN
	rising, falling := ladderSweeps(duty.DefaultLadder)

	// THEN
	// 40°C .. 95°C
	assert.Len(t, rising, 56)
	assert.Len(t, falling, 56)
	assert.Equal(t, 0.0, rising[0])
	assert.Equal(t, 65.0, rising[len(rising)-1])
	assert.Equal(t, 0.0, falling[0])
	assert.Equal(t, 65.0, falling[len(falling)-1])

	// 72°C: rising stays at 30%, falling holds 40%
	assert.Equal(t, 30.0, rising[72-40])
	assert.Equal(t, 40.0, falling[72-40])
}

func TestStatusRows(t *testing.T) {
	// GIVEN
	state := persistence.ControllerState{
		Snapshot: ec.Snapshot{
			CpuTemp: 67,
			GpuTemp: 52,
			FanDuty: 30,
			FanRpm:  2500,
			Invalid: []ec.Field{ec.FieldGpuTemp},
		},
		LastAppliedDuty: -1,
		AutoEnabled:     false,
	}

	// WHEN
	rows := statusRows("port", state)

	// THEN
	assert.Equal(t, [][]string{
		{"Source", "port"},
		{"Updated", "never"},
		{"CPU", "67°C"},
		{"GPU", "N/A"},
		{"Duty", "30%"},
		{"RPM", "2500"},
		{"Last applied", "none"},
		{"Mode", "override"},
	}, rows)
}
