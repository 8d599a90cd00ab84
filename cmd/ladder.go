package cmd

import (
	"strconv"

	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

const ladderSweepMargin = 10

var ladderCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Print the duty ladder and its hysteresis to console",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		readConfig()
		ladder := duty.NewController(configuration.CurrentConfig.DutyConfig()).GetLadder()

		var rows [][]string
		for idx, rule := range ladder {
			rows = append(rows, []string{
				strconv.Itoa(idx + 1),
				string(rule.Direction),
				strconv.Itoa(rule.Temperature),
				strconv.Itoa(rule.Duty),
				strconv.Itoa(rule.Target),
				rule.String(),
			})
		}
		printTable([]string{"#", "Direction", "Temp", "Duty", "Target", "Rule"}, rows)
		ui.Info("Target duties: %v", ladder.Targets())

		rising, falling := ladderSweeps(ladder)
		graph := asciigraph.PlotMany(
			[][]float64{rising, falling},
			asciigraph.Height(15),
			asciigraph.Width(100),
			asciigraph.LowerBound(ec.MinDuty),
			asciigraph.UpperBound(ec.MaxDuty),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
			asciigraph.SeriesLegends("rising", "falling"),
			asciigraph.Caption("Duty / Temperature"),
		)
		ui.Printfln(graph)
	},
}

// ladderSweeps returns the steady duties for a rising and a falling temperature sweep,
// both ordered by increasing temperature.
func ladderSweeps(ladder duty.Ladder) (rising []float64, falling []float64) {
	min, max := ladder.TemperatureRange()
	var temps []int
	for temp := min - ladderSweepMargin; temp <= max+ladderSweepMargin; temp++ {
		temps = append(temps, temp)
	}

	up := ladder.Sweep(temps, ec.MinDuty)

	reversed := make([]int, len(temps))
	for i, temp := range temps {
		reversed[len(temps)-1-i] = temp
	}
	down := ladder.Sweep(reversed, up[len(up)-1])

	rising = make([]float64, len(temps))
	falling = make([]float64, len(temps))
	for i := range temps {
		rising[i] = float64(up[i])
		falling[i] = float64(down[len(temps)-1-i])
	}
	return rising, falling
}

func init() {
	rootCmd.AddCommand(ladderCmd)
}
