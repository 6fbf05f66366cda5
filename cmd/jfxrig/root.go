// Package jfxrig is the command-line entry point: the thin collaborator
// surface analogous to the teacher's examples/ directory, wired through
// spf13/cobra the way tphakala-birdnet-go's cmd/root.go composes
// per-subcommand packages around a shared settings value.
package jfxrig

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaban/jfxrig/config"
	"github.com/shaban/jfxrig/rlog"
)

// RootCommand builds the jfxrig CLI's root command and attaches its
// subcommands.
func RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "jfxrig",
		Short: "Real-time guitar multi-effects signal-graph engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory to search for jfxrig.yaml")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	var cfg *config.EngineConfig
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
		if viper.GetBool("verbose") {
			rlog.SetLevel(zerolog.DebugLevel)
		}
		return nil
	}

	root.AddCommand(
		ValidateCommand(&cfg),
		RenderCommand(&cfg),
		RunCommand(&cfg),
	)
	return root
}
