// Package commands implements the bode CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "bode <driver_name> [port] [baud_rate]",
	Short: "Impersonate a Siglent AWG's RPC stack for a scope's Bode-plot feature",
	Long: `bode answers the ONC RPC Portmap and VXI-11 Core Channel calls a
Siglent oscilloscope issues while running a Bode plot, translating the
SCPI commands it receives into calls against a physical AWG driver.

Examples:
  # Drive a JDS6600 over /dev/ttyUSB0 at its default baud rate
  bode jds6600 /dev/ttyUSB0

  # Drive a BK4075, explicit baud rate
  bode bk4075 /dev/ttyUSB0 19200

  # No hardware attached, log what would have been sent
  bode dummy

  # Also answer Portmap over UDP/111, for the SDS800X-HD family
  bode dummy -udp

Use "bode [command] --help" for more information about a command.`,
	Args:          cobra.RangeArgs(1, 3),
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	// pflag reads a single-dash "-udp" as the shorthand cluster -u -d -p,
	// so that spelling is rewritten to the long flag before parsing.
	args := append([]string(nil), os.Args[1:]...)
	for i, arg := range args {
		if arg == "-udp" {
			args[i] = "--udp"
		}
	}
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bode.yaml)")
	rootCmd.Flags().BoolP("udp", "u", false, "also answer Portmap over UDP/111 (required for SDS800X-HD)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("bode %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
