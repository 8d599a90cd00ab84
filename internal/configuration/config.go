package configuration

import (
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"os"
	"time"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Source      string `json:"source"`
	DebugFsPath string `json:"debugFsPath"`

	PollInterval time.Duration `json:"pollInterval"`
	FallbackDuty int           `json:"fallbackDuty"`

	DutyTolerance int         `json:"dutyTolerance"`
	Rungs         []int       `json:"rungs"`
	Ladder        []duty.Rule `json:"ladder"`

	TemperatureWindowSize int           `json:"temperatureWindowSize"`
	MinDutyChange         int           `json:"minDutyChange"`
	ZeroTransitionHold    time.Duration `json:"zeroTransitionHold"`
	DryRun                bool          `json:"dryRun"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("ecfan")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/ecfan/")
	}

	viper.SetEnvPrefix("ecfan")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/ecfan/ecfan.db")
	viper.SetDefault("source", ec.SourceTypePort)
	viper.SetDefault("debugFsPath", ec.DefaultDebugFsPath)
	viper.SetDefault("pollInterval", 3*time.Second)
	viper.SetDefault("fallbackDuty", 16)
	viper.SetDefault("dutyTolerance", duty.DefaultTolerance)
	viper.SetDefault("rungs", duty.AllowedDuties)
	viper.SetDefault("ladder", []duty.Rule{})

	viper.SetDefault("temperatureWindowSize", 1)
	viper.SetDefault("minDutyChange", 0)
	viper.SetDefault("zeroTransitionHold", 0*time.Second)
	viper.SetDefault("dryRun", false)

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)
}

// DetectAndReadConfigFile reads the config file if one exists and returns its path.
// Defaults are used if no config file was found, in which case the path is empty.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			ui.Fatal("Error reading config file, %s", err)
		}
		ui.Debug("No configuration file found, using defaults")
		return ""
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	// load default configuration values
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		directionHookFunc(),
	)
}

// GetLadder returns the configured ladder, or the default one if none is configured.
func (c Configuration) GetLadder() duty.Ladder {
	if len(c.Ladder) == 0 {
		return duty.DefaultLadder
	}
	return c.Ladder
}

// DutyConfig returns the configuration of the duty controller.
func (c Configuration) DutyConfig() duty.Config {
	return duty.Config{
		Ladder:    c.GetLadder(),
		Rungs:     c.Rungs,
		Tolerance: c.DutyTolerance,
	}
}
