package cmd

import (
	"fmt"
	"os"

	"github.com/ecfan/ecfan/cmd/config"
	"github.com/ecfan/ecfan/cmd/duty"
	"github.com/ecfan/ecfan/cmd/global"
	"github.com/ecfan/ecfan/internal"
	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecfan",
	Short: "A daemon to control the fan of Clevo based laptops.",
	Long: `ecfan is a simple daemon that controls the fan duty
of Clevo based laptops through the embedded controller,
based on the CPU and GPU temperatures it reports.`,
	// this is the default command to run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		printHeader()

		configPath := readConfig()
		err := configuration.Validate(configPath)
		if err != nil {
			ui.ErrorAndNotify("Config Validation Error", err.Error())
			os.Exit(1)
		}

		internal.RunDaemon()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/ecfan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)
	rootCmd.AddCommand(duty.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// readConfig reads the config file (if any) into configuration.CurrentConfig and returns its path
func readConfig() string {
	configPath := configuration.DetectAndReadConfigFile()
	if len(configPath) > 0 {
		ui.Info("Using configuration file at: %s", configPath)
	}
	configuration.LoadConfig()
	return configPath
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("ec", pterm.NewStyle(pterm.FgLightBlue)),
		pterm.NewLettersFromStringWithStyle("fan", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("ecfan")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		setupUi()
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
