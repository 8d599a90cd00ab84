package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/persistence"
	"github.com/stretchr/testify/assert"
)

// idlePort reports an idle EC and accepts every write
type idlePort struct{}

func (p idlePort) ReadPort(port uint16) (byte, error) {
	return 0, nil
}

func (p idlePort) WritePort(port uint16, value byte) error {
	return nil
}

func (p idlePort) Close() error {
	return nil
}

func createConfig(t *testing.T) configuration.Configuration {
	return configuration.Configuration{
		DbPath:                filepath.Join(t.TempDir(), "ecfan.db"),
		Source:                ec.SourceTypePort,
		DebugFsPath:           filepath.Join(t.TempDir(), "io"),
		PollInterval:          3 * time.Second,
		FallbackDuty:          16,
		TemperatureWindowSize: 1,
	}
}

func TestInitializeObjects(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	transport := ec.NewTransport(idlePort{})

	// WHEN
	fanController, err := InitializeObjects(config, transport, persistence.NewPersistence(config.DbPath))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, ec.SourceTypePort, fanController.GetId())
	assert.True(t, ec.SourceMap.Has(ec.SourceTypePort))
	assert.True(t, fanController.GetStatus().AutoEnabled)
}

func TestInitializeObjects_UnknownSource(t *testing.T) {
	// GIVEN
	config := createConfig(t)
	config.Source = "acpi"
	transport := ec.NewTransport(idlePort{})

	// WHEN
	_, err := InitializeObjects(config, transport, persistence.NewPersistence(config.DbPath))

	// THEN
	assert.EqualError(t, err, "no matching telemetry source type: acpi")
}

func TestNormalizePort(t *testing.T) {
	assert.Equal(t, 9100, normalizePort(9100, defaultStatisticsPort))
	assert.Equal(t, defaultStatisticsPort, normalizePort(0, defaultStatisticsPort))
	assert.Equal(t, defaultApiPort, normalizePort(70000, defaultApiPort))
}
