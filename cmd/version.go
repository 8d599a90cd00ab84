package cmd

import (
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ecfan",
	Long:  `All software has versions. This is ecfan's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
