package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagDetail   = flag.Float64("detail", 0, "Remesh detail (curvature approximation error)")
	flagDyntopo  = flag.String("dyntopo", "", "Dynamic topology: on or off")
	flagWorkers  = flag.Int("workers", 0, "Parallel worker count")
	flagLeafSize = flag.Int("leaf-size", 0, "Maximum faces per spatial index leaf")
	flagBrush    = flag.String("brush", "", "Brush kind")
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
	if *flagDetail > 0 {
		cfg.Remesh.Detail = *flagDetail
	}
	switch *flagDyntopo {
	case "on":
		cfg.Remesh.Enabled = true
	case "off":
		cfg.Remesh.Enabled = false
	}
	if *flagWorkers > 0 {
		cfg.Parallel.Workers = *flagWorkers
	}
	if *flagLeafSize > 0 {
		cfg.Index.MaxLeafSize = *flagLeafSize
	}
	if *flagBrush != "" {
		cfg.Brush.Kind = *flagBrush
	}
}
