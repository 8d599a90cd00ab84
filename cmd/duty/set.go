package duty

import (
	"fmt"
	"strconv"

	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <percent>",
	Short: "Set the fan duty to the given value ([0..100])",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", ec.ErrInvalidDutyArgument, args[0])
		}
		// reject before touching any port
		if err := ec.ValidateDuty(percent); err != nil {
			return err
		}

		transport, err := openTransport()
		if err != nil {
			return err
		}
		defer func() {
			_ = transport.Close()
		}()

		err = transport.WriteDuty(percent)
		if err != nil {
			return err
		}
		ui.Success("Fan duty set to %d%%", percent)
		return nil
	},
}

func init() {
	Command.AddCommand(setCmd)
}
