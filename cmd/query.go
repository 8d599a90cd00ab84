package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ecfan/ecfan/cmd/global"
	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/ecfan/ecfan/internal/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	querySource string
	queryOutput string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print a single telemetry snapshot as JSON",
	Long: `Reads the CPU and GPU temperatures, the fan duty and the fan speed
from the embedded controller and prints them as JSON.

With --source port this accesses the embedded controller ports directly. Running it
while the daemon is active is unsafe, as concurrent port access from two processes can
corrupt the handshake. Use --source debugfs, "ecfan status" or the daemon's REST API instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !global.Verbose {
			pterm.DisableOutput()
		}
		readConfig()

		sourceType := querySource
		if len(sourceType) <= 0 {
			sourceType = configuration.CurrentConfig.Source
		}
		snapshot, err := readSnapshot(sourceType, configuration.CurrentConfig.DebugFsPath)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}

		if len(queryOutput) > 0 {
			return util.WriteFileAtomic(queryOutput, append(data, '\n'))
		}
		fmt.Println(string(data))
		return nil
	},
}

func readSnapshot(sourceType string, debugFsPath string) (ec.Snapshot, error) {
	var transport *ec.Transport
	if sourceType == ec.SourceTypePort {
		t, err := ec.OpenTransport(ec.DevPortPath)
		if err != nil {
			return ec.Snapshot{}, err
		}
		defer func() {
			_ = t.Close()
		}()
		transport = t
	}
	if sourceType == ec.SourceTypeDebugFs {
		if _, err := os.Stat(debugFsPath); err != nil {
			if err := ec.LoadDebugModule(); err != nil {
				ui.Warning("Unable to load EC debug module: %v", err)
			}
		}
	}

	var source ec.TelemetrySource
	var err error
	if transport != nil {
		source, err = ec.NewSource(sourceType, transport, debugFsPath)
	} else {
		source, err = ec.NewSource(sourceType, nil, debugFsPath)
	}
	if err != nil {
		return ec.Snapshot{}, err
	}
	return source.Read()
}

func init() {
	queryCmd.Flags().StringVarP(&querySource, "source", "s", "", "telemetry source to read from (port | debugfs), defaults to the configured source")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "write the snapshot to this file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}
