package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fitcoach version",
		Args:  cobra.NoArgs,
		// Skip config loading so version works without a valid environment.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			v, c := version, commit
			if info, ok := debug.ReadBuildInfo(); ok {
				if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
					v = info.Main.Version
				}
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" && c == "none" && len(s.Value) >= 7 {
						c = s.Value[:7]
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fitcoach %s (%s)\n", v, c)
		},
	}
}
