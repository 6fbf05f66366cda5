package jfxrig

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaban/jfxrig/config"
	"github.com/shaban/jfxrig/control"
	"github.com/shaban/jfxrig/graph"
	"github.com/shaban/jfxrig/iodevice"
	"github.com/shaban/jfxrig/rig"
	"github.com/shaban/jfxrig/rlog"
	"github.com/shaban/jfxrig/scheduler"
)

// RunCommand compiles a rig and plays it live against the configured
// portaudio devices until interrupted, the way the teacher's file
// command runs an analysis until its context is cancelled.
func RunCommand(cfg **config.EngineConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [rig.json]",
		Short: "Run a rig live against the audio hardware",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := rlog.For("run")

			desc, err := rig.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("loading rig: %w", err)
			}

			sampleRate := (*cfg).SampleRate
			blockSize := (*cfg).BlockSize
			stereo := desc.ChannelMode == "STEREO"

			plan, err := graph.Compile(desc, sampleRate, blockSize)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			driver := iodevice.NewPortAudioDriver()
			queue := control.NewQueue((*cfg).ControlQueueDepth)
			holder := control.NewPlanHolder(plan)
			sched := scheduler.New(driver, holder, queue, plan, blockSize, sampleRate)

			if err := sched.Start(sampleRate, blockSize, stereo); err != nil {
				return fmt.Errorf("starting audio stream: %w", err)
			}
			defer driver.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				cancel()
			}()

			log.Info().Float64("sampleRate", sampleRate).Int("blockSize", blockSize).
				Bool("stereo", stereo).Msg("engine running")

			<-ctx.Done()
			return sched.Stop()
		},
	}
	cmd.SilenceUsage = true
	return cmd
}
