package duty

import (
	"fmt"

	"github.com/ecfan/ecfan/internal/ec"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current fan duty in percent",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, err := openTransport()
		if err != nil {
			return err
		}
		defer func() {
			_ = transport.Close()
		}()

		raw, err := transport.ReadRegister(ec.RegisterFanDuty)
		if err != nil {
			return err
		}
		fmt.Printf("%d\n", ec.RawToDuty(raw))
		return nil
	},
}

func init() {
	Command.AddCommand(getCmd)
}
