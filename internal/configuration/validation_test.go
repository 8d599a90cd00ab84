package configuration

import (
	"testing"
	"time"

	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/stretchr/testify/assert"
)

func createValidConfig() Configuration {
	return Configuration{
		DbPath:                "/tmp/ecfan.db",
		Source:                ec.SourceTypePort,
		DebugFsPath:           ec.DefaultDebugFsPath,
		PollInterval:          3 * time.Second,
		FallbackDuty:          16,
		DutyTolerance:         duty.DefaultTolerance,
		Rungs:                 duty.AllowedDuties,
		TemperatureWindowSize: 1,
		Api: ApiConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    9001,
		},
		Statistics: StatisticsConfig{
			Enabled: true,
			Port:    9000,
		},
	}
}

func TestValidateDefaultConfig(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.NoError(t, err)
}

func TestValidateUnsupportedSource(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Source = "acpi"

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "unsupported source 'acpi', use one of: port | debugfs")
}

func TestValidateDebugFsSourceWithoutPath(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Source = ec.SourceTypeDebugFs
	config.DebugFsPath = ""

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "source debugfs: no debugFsPath provided")
}

func TestValidateFallbackDuty(t *testing.T) {
	tests := []struct {
		name    string
		duty    int
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -5, true},
		{"above max", 101, true},
		{"min", 1, false},
		{"default", 16, false},
		{"max", 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			config := createValidConfig()
			config.FallbackDuty = tt.duty

			// WHEN
			err := validateConfig(&config, "")

			// THEN
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePollInterval(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.PollInterval = 0

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "pollInterval must be positive, got 0s")
}

func TestValidateTemperatureWindowSize(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.TemperatureWindowSize = 0

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "temperatureWindowSize must be >= 1, got 0")
}

func TestValidateNegativeMinDutyChange(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.MinDutyChange = -1

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "minDutyChange must not be negative, got -1")
}

func TestValidateRungsNotSorted(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Rungs = []int{0, 30, 16}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "rungs must be sorted in increasing order without duplicates: [0 30 16]")
}

func TestValidateRungOutOfRange(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Rungs = []int{0, 16, 120}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "rung 120: duty must be in [0, 100]")
}

func TestValidateNegativeTolerance(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.DutyTolerance = -1

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "dutyTolerance must not be negative, got -1")
}

func TestValidateLadderUnknownDirection(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Ladder = []duty.Rule{
		{Direction: "sideways", Temperature: 60, Duty: 30, Target: 30},
	}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "ladder rule 1: unknown direction 'sideways', use one of: ascending | descending")
}

func TestValidateLadderTargetOutOfRange(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Ladder = []duty.Rule{
		{Direction: duty.DirectionAscending, Temperature: 60, Duty: 30, Target: 30},
		{Direction: duty.DirectionAscending, Temperature: 90, Duty: 100, Target: 110},
	}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "ladder rule 2: target must be in [0, 100], got 110")
}

func TestValidateLadderOscillation(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Ladder = []duty.Rule{
		{Direction: duty.DirectionAscending, Temperature: 60, Duty: 30, Target: 30},
		// lowers the duty again within the same temperature band
		{Direction: duty.DirectionDescending, Temperature: 70, Duty: 30, Target: 17},
	}

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "ladder oscillates at 60°C between duties: [17 30]")
}

func TestValidateDefaultLadderHasNoOscillation(t *testing.T) {
	// GIVEN
	ladder := duty.DefaultLadder

	// WHEN
	err := validateLadder(ladder)

	// THEN
	assert.NoError(t, err)
}

func TestValidateServersSharePort(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Statistics.Port = config.Api.Port

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.EqualError(t, err, "api and statistics cannot share port 9001")
}

func TestValidateDisabledServerPortIsIgnored(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Api.Enabled = false
	config.Api.Port = -1

	// WHEN
	err := validateConfig(&config, "")

	// THEN
	assert.NoError(t, err)
}
