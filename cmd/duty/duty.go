package duty

import (
	"errors"

	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "duty",
	Short: "Get or set the fan duty directly through the embedded controller",
	Long: `Note: a running ecfan daemon will overwrite a manually set duty in its next cycle.

Running this command while the daemon is active is unsafe: the embedded controller
handles one transaction at a time and concurrent port access from two processes can
corrupt the handshake. Stop the daemon first, or use its REST API (/duty/) instead.`,
	TraverseChildren: true,
}

func openTransport() (*ec.Transport, error) {
	transport, err := ec.OpenTransport(ec.DevPortPath)
	if errors.Is(err, ec.ErrPortAccessDenied) {
		ui.Error("Accessing the embedded controller requires root permissions")
	}
	return transport, err
}
