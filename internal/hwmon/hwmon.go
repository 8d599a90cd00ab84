package hwmon

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/md14454/gosensors"
	"golang.org/x/exp/slices"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

var (
	// CpuChipNames are the drivers reporting the package temperature of the CPU
	CpuChipNames = []string{"coretemp", "k10temp", "zenpower"}
	// GpuChipNames are the drivers reporting the temperature of a discrete GPU
	GpuChipNames = []string{"nvidia", "amdgpu", "nouveau"}

	platformRegex = regexp.MustCompile(`/platform/([^/]+)/`)
)

type Chip struct {
	Name     string
	Prefix   string
	Platform string
	Path     string

	Sensors []*TempSensor
}

type TempSensor struct {
	Label string
	Index int
	Input string
	Value float64
	Max   float64
	Min   float64
}

// GetChips returns all chips known to lm-sensors that expose at least one temperature.
func GetChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*Chip
	for i := 0; i < len(chips); i++ {
		chip := chips[i]

		sensorList := GetTempSensors(chip)
		if len(sensorList) <= 0 {
			continue
		}

		platform := findPlatform(chip.Path)
		identifier := computeIdentifier(chip)
		if len(platform) <= 0 {
			platform = identifier
		}

		list = append(list, &Chip{
			Name:     identifier,
			Prefix:   chip.Prefix,
			Platform: platform,
			Path:     chip.Path,
			Sensors:  sensorList,
		})
	}

	return list
}

func GetTempSensors(chip gosensors.Chip) []*TempSensor {
	var sensorList []*TempSensor

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		input, ok := findSubFeature(subfeatures, gosensors.SubFeatureTypeTempInput)
		if !ok {
			continue
		}

		sensor := &TempSensor{
			Label: getLabel(chip.Path, input.Name),
			Index: len(sensorList) + 1,
			Input: fmt.Sprintf("%s/%s", chip.Path, input.Name),
			Value: input.GetValue(),
			Max:   -1,
			Min:   -1,
		}
		if max, ok := findSubFeature(subfeatures, gosensors.SubFeatureTypeTempMax); ok {
			sensor.Max = max.GetValue()
		}
		if min, ok := findSubFeature(subfeatures, gosensors.SubFeatureTypeTempMin); ok {
			sensor.Min = min.GetValue()
		}

		sensorList = append(sensorList, sensor)
	}

	return sensorList
}

// MaxTemperature returns the hottest sensor value of the chip
func (c Chip) MaxTemperature() (float64, bool) {
	if len(c.Sensors) <= 0 {
		return 0, false
	}
	result := c.Sensors[0].Value
	for _, sensor := range c.Sensors[1:] {
		if sensor.Value > result {
			result = sensor.Value
		}
	}
	return result, true
}

// FindTemperature returns the hottest temperature of the first chip
// whose driver is one of the given names.
func FindTemperature(chips []*Chip, names []string) (float64, string, bool) {
	for _, chip := range chips {
		if !slices.Contains(names, chip.Prefix) {
			continue
		}
		if temp, ok := chip.MaxTemperature(); ok {
			return temp, chip.Name, true
		}
	}
	return 0, "", false
}

func findSubFeature(subfeatures []gosensors.SubFeature, input gosensors.SubFeatureType) (gosensors.SubFeature, bool) {
	for _, a := range subfeatures {
		if a.Type == input {
			return a, true
		}
	}
	return gosensors.SubFeature{}, false
}

// getLabel read the label of a in/output of a device
func getLabel(devicePath string, input string) string {
	labelPath := strings.TrimSuffix(devicePath+"/"+input, "input") + "label"

	content, _ := os.ReadFile(labelPath)
	label := string(content)
	if len(label) <= 0 {
		label = input
	}
	return strings.TrimSpace(label)
}

func getDeviceName(devicePath string) string {
	content, _ := os.ReadFile(filepath.Join(devicePath, "name"))
	return strings.TrimSpace(string(content))
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		name = getDeviceName(devicePath)
	}

	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d", identifier, chip.Bus.Nr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d", identifier, chip.Bus.Nr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}

func findPlatform(devicePath string) string {
	match := platformRegex.FindStringSubmatch(devicePath)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
