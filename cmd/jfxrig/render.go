package jfxrig

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaban/jfxrig/audiofile"
	"github.com/shaban/jfxrig/config"
	"github.com/shaban/jfxrig/control"
	"github.com/shaban/jfxrig/graph"
	"github.com/shaban/jfxrig/iodevice"
	"github.com/shaban/jfxrig/rig"
	"github.com/shaban/jfxrig/scheduler"
)

// RenderCommand compiles a rig and drives it offline over a WAV input,
// producing an output file that §8's offline-equals-real-time property
// says must be bit-for-bit what a live callback run would produce.
func RenderCommand(cfg **config.EngineConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [rig.json] [input.wav] [output.wav]",
		Short: "Render a rig offline over a WAV file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rigPath, inPath, outPath := args[0], args[1], args[2]

			desc, err := rig.LoadFile(rigPath)
			if err != nil {
				return fmt.Errorf("loading rig: %w", err)
			}

			inL, inR, sampleRate, err := audiofile.Read(inPath)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			blockSize := (*cfg).BlockSize
			plan, err := graph.Compile(desc, sampleRate, blockSize)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			stereo := desc.ChannelMode == "STEREO"
			driver := iodevice.NewMemoryDriver(inL, inR)
			if err := driver.Configure(sampleRate, blockSize, stereo); err != nil {
				return fmt.Errorf("configuring driver: %w", err)
			}

			queue := control.NewQueue((*cfg).ControlQueueDepth)
			holder := control.NewPlanHolder(plan)
			sched := scheduler.New(driver, holder, queue, plan, blockSize, sampleRate)

			driver.RunAll(sched.Callback())
			outL, outR := driver.Output()

			var right []float32
			if stereo {
				right = outR
			}
			if err := audiofile.Write(outPath, outL, right, sampleRate); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			fmt.Printf("rendered %d frames to %s\n", len(outL), outPath)
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
