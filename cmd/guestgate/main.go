// Guestgate provisions hotel guest WiFi access on MikroTik routers.
//
// It generates per-room hotspot credentials, pushes them to the router over
// the RouterOS binary API, and tracks issued access in a local database so
// front-desk staff can revoke and audit it.
//
// Usage:
//
//	guestgate [command] [flags]
//
// See 'guestgate --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwrona/guestgate/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "guestgate",
	Short: "Hotel Guest WiFi Provisioning",
	Long: `A front-desk utility for managing guest WiFi access on MikroTik routers.

Provisions per-room hotspot credentials over the RouterOS binary API,
tracks issued access in a local database, and cleans up expired accounts.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("guestgate %s (commit: %s)\n", version.Version, version.Commit)
	},
}
