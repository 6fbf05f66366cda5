// Package config loads the process-level engine configuration (§6
// addendum: "process-level config surface") via spf13/viper, following
// the teacher's internal/conf layering — defaults, then a config file,
// then JFXRIG_-prefixed environment variables, all applied by Load. No
// command-line flag overrides an EngineConfig field.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EngineConfig is the process-level configuration the scheduler and
// I/O driver are constructed from. It is read once at startup; nothing
// in here changes at runtime (runtime changes go through control.Op).
type EngineConfig struct {
	SampleRate              float64 `mapstructure:"sampleRate"`
	BlockSize               int     `mapstructure:"blockSize"`
	ChannelMode             string  `mapstructure:"channelMode"` // "MONO" | "STEREO"
	ControlQueueDepth       int     `mapstructure:"controlQueueDepth"`
	SmoothingTimeConstantMs float64 `mapstructure:"smoothingTimeConstantMs"`
	InputDeviceName         string  `mapstructure:"inputDeviceName"`
	OutputDeviceName        string  `mapstructure:"outputDeviceName"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sampleRate", 48000.0)
	v.SetDefault("blockSize", 256)
	v.SetDefault("channelMode", "MONO")
	v.SetDefault("controlQueueDepth", 256)
	v.SetDefault("smoothingTimeConstantMs", 10.0)
	v.SetDefault("inputDeviceName", "")
	v.SetDefault("outputDeviceName", "")
}

// Load reads jfxrig's configuration from (in ascending priority) built-in
// defaults, a config file named "jfxrig" (yaml/json/toml, resolved by
// viper) on the given search paths, and the JFXRIG_-prefixed
// environment. A missing config file is not an error — defaults stand
// in, the same "absent means fresh start" behavior the rig and favorites
// loaders use.
func Load(searchPaths ...string) (*EngineConfig, error) {
	v := viper.New()
	v.SetConfigName("jfxrig")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("JFXRIG")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the §6 audio I/O surface constraints (8000≤sampleRate
// ≤192000; 64≤blockSize≤16384) plus the channel mode enum.
func Validate(cfg *EngineConfig) error {
	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		return fmt.Errorf("config: sampleRate %v out of range [8000,192000]", cfg.SampleRate)
	}
	if cfg.BlockSize < 64 || cfg.BlockSize > 16384 {
		return fmt.Errorf("config: blockSize %v out of range [64,16384]", cfg.BlockSize)
	}
	if cfg.ChannelMode != "MONO" && cfg.ChannelMode != "STEREO" {
		return fmt.Errorf("config: channelMode %q must be MONO or STEREO", cfg.ChannelMode)
	}
	if cfg.ControlQueueDepth < 1 {
		return fmt.Errorf("config: controlQueueDepth must be positive")
	}
	return nil
}
