package config

import (
	"flag"
	"time"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagDuration = flag.Duration("duration", 0, "Run the demo for this long")
	flagTimestep = flag.Float64("timestep", 0, "Seconds per physics frame")
	flagHeight   = flag.Float64("height", 0, "Initial model scale")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDuration > 0 {
		cfg.Demo.Duration = *flagDuration
	}
	if *flagTimestep > 0 {
		cfg.Physics.Timestep = float32(*flagTimestep)
	}
	if *flagHeight > 0 {
		cfg.Demo.Height = float32(*flagHeight)
	}
}

// Frames returns how many fixed steps fit in the demo duration.
func (c *Config) Frames() int {
	if c.Physics.Timestep <= 0 {
		return 0
	}
	step := time.Duration(float64(c.Physics.Timestep) * float64(time.Second))
	if step <= 0 {
		return 0
	}
	return int(c.Demo.Duration / step)
}
