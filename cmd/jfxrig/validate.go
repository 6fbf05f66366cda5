package jfxrig

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaban/jfxrig/config"
	"github.com/shaban/jfxrig/graph"
	"github.com/shaban/jfxrig/rig"
)

// ValidateCommand compiles a rig file and reports the compiler's
// errors, the way a linter reports failures without running anything.
func ValidateCommand(cfg **config.EngineConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rig.json]",
		Short: "Compile a rig description and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := rig.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("loading rig: %w", err)
			}

			sampleRate := (*cfg).SampleRate
			blockSize := (*cfg).BlockSize

			plan, err := graph.Compile(desc, sampleRate, blockSize)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			cmd.Printf("ok: %d nodes, %d sources, %d sinks, channel mode %s\n",
				len(plan.Steps), len(plan.Sources), len(plan.Sinks), desc.ChannelMode)
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
