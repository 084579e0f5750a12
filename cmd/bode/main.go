// Command bode impersonates a Siglent AWG's RPC stack so a Siglent
// oscilloscope's Bode-plot feature can drive a third-party generator.
package main

import (
	"os"

	"github.com/bstrobel/sds1004x-bode/cmd/bode/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
