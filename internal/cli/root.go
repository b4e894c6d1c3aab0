package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/gate"
)

var rootCmd = &cobra.Command{
	Use:   "powergate",
	Short: "Authorization and verification gate for high-risk device operations",
	Long:  "Routes risky device operations through role, device, and condition gates; destructive ones additionally demand a multi-challenge power-star ritual. Every decision leaves an encrypted shadow trail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if ok, _ := gate.MachineAuthorized(); !ok {
			fmt.Fprintln(os.Stderr, "FATAL: this machine is not on the gate allowlist")
			os.Exit(77) // EX_NOPERM
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
