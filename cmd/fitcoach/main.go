// Command fitcoach runs the FitCoach API server and its maintenance tasks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fitcoach:", err)
		os.Exit(1)
	}
}
