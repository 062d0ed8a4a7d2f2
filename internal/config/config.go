// Package config handles sculpt session configuration loading and management.
package config

// Config holds all session settings.
type Config struct {
	Remesh   RemeshConfig   `yaml:"remesh"`
	Index    IndexConfig    `yaml:"index"`
	Brush    BrushConfig    `yaml:"brush"`
	Parallel ParallelConfig `yaml:"parallel"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RemeshConfig holds dynamic topology settings.
type RemeshConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Detail           float64 `yaml:"detail"`   // approximation error used for curvature sizing
	MinEdge          float64 `yaml:"min_edge"` // global lower bound on edge length
	MaxEdge          float64 `yaml:"max_edge"` // global upper bound on edge length
	Adaptive         bool    `yaml:"adaptive"`
	UseQuadrics      bool    `yaml:"use_quadrics"`
	SplitScale       float64 `yaml:"split_scale"`
	MaxSplitDepth    int     `yaml:"max_split_depth"`
	FlipPasses       int     `yaml:"flip_passes"`
	SmoothIterations int     `yaml:"smooth_iterations"`
	SmoothFactor     float64 `yaml:"smooth_factor"`
	CollapsePolicy   string  `yaml:"collapse_policy"` // "valence" or "error"
	FeatureAngle     float64 `yaml:"feature_angle"`   // degrees, 0 disables feature marking
}

// IndexConfig holds spatial index settings.
type IndexConfig struct {
	MaxLeafSize int `yaml:"max_leaf_size"`
	MaxDepth    int `yaml:"max_depth"`
}

// BrushConfig holds the default brush for the bench tool.
type BrushConfig struct {
	Kind     string  `yaml:"kind"`
	Falloff  string  `yaml:"falloff"`
	Radius   float64 `yaml:"radius"`
	Strength float64 `yaml:"strength"`
	Symmetry string  `yaml:"symmetry"` // any of "x", "y", "z"
}

// ParallelConfig holds fork-join scheduler settings.
type ParallelConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
	Grain   int `yaml:"grain"`   // minimum items per task
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Remesh: RemeshConfig{
			Enabled:          true,
			Detail:           0.01,
			MinEdge:          0.02,
			MaxEdge:          0.2,
			Adaptive:         true,
			UseQuadrics:      true,
			SplitScale:       1.6,
			MaxSplitDepth:    10,
			FlipPasses:       5,
			SmoothIterations: 1,
			SmoothFactor:     0.5,
			CollapsePolicy:   "valence",
			FeatureAngle:     0,
		},
		Index: IndexConfig{
			MaxLeafSize: 150,
			MaxDepth:    16,
		},
		Brush: BrushConfig{
			Kind:     "draw",
			Falloff:  "smooth",
			Radius:   0.25,
			Strength: 0.5,
			Symmetry: "",
		},
		Parallel: ParallelConfig{
			Workers: 0,
			Grain:   256,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
