package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/hwmon"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/spf13/cobra"
)

type registerInfo struct {
	name    string
	address byte
	decode  func(raw byte) string
}

var detectedRegisters = []registerInfo{
	{"CPU temperature", ec.RegisterCpuTemp, func(raw byte) string { return fmt.Sprintf("%d°C", raw) }},
	{"GPU temperature", ec.RegisterGpuTemp, func(raw byte) string { return fmt.Sprintf("%d°C", raw) }},
	{"Fan duty", ec.RegisterFanDuty, func(raw byte) string { return fmt.Sprintf("%d%%", ec.RawToDuty(raw)) }},
	{"Fan RPM (high)", ec.RegisterFanRpmHi, nil},
	{"Fan RPM (low)", ec.RegisterFanRpmLo, nil},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long: `Reads the fan and temperature registers of the embedded controller
and lists the temperatures known to lm-sensors for comparison.`,
	Run: func(cmd *cobra.Command, args []string) {
		readConfig()

		snapshot, ok := detectEmbeddedController()

		chips := hwmon.GetChips()
		for _, chip := range chips {
			ui.Printfln("> %s", chip.Name)

			var sensorRows [][]string
			for _, sensor := range chip.Sensors {
				_, file := filepath.Split(sensor.Input)
				labelAndFile := fmt.Sprintf("%s (%s)", sensor.Label, file)
				sensorRows = append(sensorRows, []string{
					"", strconv.Itoa(sensor.Index), labelAndFile, strconv.Itoa(int(sensor.Value)),
				})
			}
			printTable([]string{"Sensors", "Index", "Label", "Value"}, sensorRows)
		}

		if !ok {
			return
		}
		compareTemperature("CPU", snapshot.CpuTemp, snapshot.IsValid(ec.FieldCpuTemp), chips, hwmon.CpuChipNames)
		compareTemperature("GPU", snapshot.GpuTemp, snapshot.IsValid(ec.FieldGpuTemp), chips, hwmon.GpuChipNames)
	},
}

func detectEmbeddedController() (ec.Snapshot, bool) {
	transport, err := ec.OpenTransport(ec.DevPortPath)
	if err != nil {
		ui.Warning("Unable to access the embedded controller: %v", err)
		return ec.Snapshot{}, false
	}
	defer func() {
		_ = transport.Close()
	}()

	ui.Printfln("> Embedded Controller")
	var rows [][]string
	for _, register := range detectedRegisters {
		rawText, valueText := "N/A", "N/A"
		raw, err := transport.ReadRegister(register.address)
		if err == nil {
			rawText = fmt.Sprintf("0x%02X", raw)
			valueText = strconv.Itoa(int(raw))
			if register.decode != nil {
				valueText = register.decode(raw)
			}
		} else {
			ui.Debug("Reading register 0x%02X failed: %v", register.address, err)
		}
		rows = append(rows, []string{"", fmt.Sprintf("0x%02X", register.address), register.name, rawText, valueText})
	}
	printTable([]string{"Registers", "Address", "Name", "Raw", "Value"}, rows)

	snapshot, err := (&ec.PortSource{Reader: transport}).Read()
	if err != nil {
		ui.Warning("Unable to read telemetry: %v", err)
		return snapshot, false
	}
	ui.Printfln("Telemetry: %s", snapshot)
	return snapshot, true
}

func compareTemperature(name string, ecTemp int, valid bool, chips []*hwmon.Chip, chipNames []string) {
	temp, chip, ok := hwmon.FindTemperature(chips, chipNames)
	if !ok || !valid {
		return
	}
	ui.Info("%s: EC reports %d°C, %s reports %.0f°C", name, ecTemp, chip, temp)
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
