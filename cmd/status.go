package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/persistence"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/spf13/cobra"
)

var clearState bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state last recorded by the daemon",
	Long: `Prints the last telemetry snapshot and the last applied duty
recorded by the daemon. The embedded controller itself is not accessed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		readConfig()
		config := configuration.CurrentConfig

		if _, err := os.Stat(config.DbPath); err != nil {
			ui.Warning("No state recorded yet, is the daemon running?")
			return nil
		}

		pers := persistence.NewPersistence(config.DbPath)
		if clearState {
			if err := pers.DeleteControllerState(config.Source); err != nil {
				return err
			}
			ui.Success("Cleared recorded state of %s", config.Source)
			return nil
		}

		state, err := pers.LoadControllerState(config.Source)
		if errors.Is(err, os.ErrNotExist) {
			ui.Warning("No state recorded yet, is the daemon running?")
			return nil
		}
		if err != nil {
			return err
		}

		printTable([]string{"", ""}, statusRows(config.Source, state))
		return nil
	},
}

func statusRows(source string, state persistence.ControllerState) [][]string {
	snapshot := state.Snapshot
	value := func(field ec.Field, text string) string {
		if !snapshot.IsValid(field) {
			return "N/A"
		}
		return text
	}

	lastApplied := "none"
	if state.LastAppliedDuty >= 0 {
		lastApplied = fmt.Sprintf("%d%%", state.LastAppliedDuty)
	}
	mode := "auto"
	if !state.AutoEnabled {
		mode = "override"
	}
	updated := "never"
	if !state.UpdatedAt.IsZero() {
		updated = state.UpdatedAt.Local().Format(time.DateTime)
	}

	return [][]string{
		{"Source", source},
		{"Updated", updated},
		{"CPU", value(ec.FieldCpuTemp, fmt.Sprintf("%d°C", snapshot.CpuTemp))},
		{"GPU", value(ec.FieldGpuTemp, fmt.Sprintf("%d°C", snapshot.GpuTemp))},
		{"Duty", value(ec.FieldFanDuty, fmt.Sprintf("%d%%", snapshot.FanDuty))},
		{"RPM", value(ec.FieldFanRpm, strconv.Itoa(snapshot.FanRpm))},
		{"Last applied", lastApplied},
		{"Mode", mode},
	}
}

func init() {
	statusCmd.Flags().BoolVar(&clearState, "clear", false, "Delete the recorded state instead of printing it")
	rootCmd.AddCommand(statusCmd)
}
