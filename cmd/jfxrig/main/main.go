// Command jfxrig is the engine's command-line front end: validate,
// render, and run subcommands over a rig description.
package main

import (
	"fmt"
	"os"

	"github.com/shaban/jfxrig/cmd/jfxrig"
)

func main() {
	if err := jfxrig.RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
