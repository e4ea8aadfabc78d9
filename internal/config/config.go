// Package config handles engine configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all engine settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// WorldConfig holds terrain generation settings.
type WorldConfig struct {
	Seed string `yaml:"seed"`

	// ChunkSize is the edge length of one terrain chunk in world units.
	ChunkSize float32 `yaml:"chunk_size"`

	// MaxWorldCoordinate is the symmetric bound on generatable coordinates;
	// valid positions lie in [-MaxWorldCoordinate, MaxWorldCoordinate].
	MaxWorldCoordinate float32 `yaml:"max_world_coordinate"`

	// StridePerLOD is the vertex spacing per LOD level; entry 0 is the
	// densest. DistancePerLOD is the matching visibility radius per level.
	// Both tables must have the same length, one entry per LOD.
	StridePerLOD   []float32 `yaml:"stride_per_lod"`
	DistancePerLOD []float32 `yaml:"distance_per_lod"`
}

// StreamingConfig holds chunk streaming settings.
type StreamingConfig struct {
	// FinalizeBudget caps scheduler-thread finalization work per frame.
	FinalizeBudget time.Duration `yaml:"finalize_budget"`

	// Workers is the generation worker pool size; 0 means NumCPU.
	Workers int `yaml:"workers"`

	// LodUpdatePeriod is the number of frames over which per-chunk LOD
	// re-evaluation is staggered.
	LodUpdatePeriod int `yaml:"lod_update_period"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		World: WorldConfig{
			Seed:               "terrastream",
			ChunkSize:          64,
			MaxWorldCoordinate: 1_000_000,
			StridePerLOD:       []float32{1, 2, 4, 8},
			DistancePerLOD:     []float32{128, 256, 512, 1024},
		},
		Streaming: StreamingConfig{
			FinalizeBudget:  2 * time.Millisecond,
			Workers:         0,
			LodUpdatePeriod: 8,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks invariants the engine depends on. A violation is a
// configuration bug, not a runtime condition.
func (c *Config) Validate() error {
	w := &c.World
	if w.ChunkSize <= 0 {
		return fmt.Errorf("world.chunk_size must be positive, got %g", w.ChunkSize)
	}
	if w.MaxWorldCoordinate <= w.ChunkSize {
		return fmt.Errorf("world.max_world_coordinate %g must exceed chunk_size %g",
			w.MaxWorldCoordinate, w.ChunkSize)
	}
	if len(w.StridePerLOD) == 0 {
		return fmt.Errorf("world.stride_per_lod must have at least one entry")
	}
	if len(w.StridePerLOD) != len(w.DistancePerLOD) {
		return fmt.Errorf("world LOD tables must be equal length: stride has %d entries, distance has %d",
			len(w.StridePerLOD), len(w.DistancePerLOD))
	}
	for i, s := range w.StridePerLOD {
		if s <= 0 {
			return fmt.Errorf("world.stride_per_lod[%d] must be positive, got %g", i, s)
		}
	}
	for i, d := range w.DistancePerLOD {
		if d <= 0 {
			return fmt.Errorf("world.distance_per_lod[%d] must be positive, got %g", i, d)
		}
		if i > 0 && d <= w.DistancePerLOD[i-1] {
			return fmt.Errorf("world.distance_per_lod must be strictly increasing at index %d", i)
		}
	}
	if c.Streaming.FinalizeBudget <= 0 {
		return fmt.Errorf("streaming.finalize_budget must be positive, got %v", c.Streaming.FinalizeBudget)
	}
	if c.Streaming.LodUpdatePeriod <= 0 {
		return fmt.Errorf("streaming.lod_update_period must be positive, got %d", c.Streaming.LodUpdatePeriod)
	}
	return nil
}
