package admit

import (
	"fmt"
	"time"
)

// List of different admission presets.
const (
	PresetAmbient = "ambient"
	PresetWhale   = "whale"
)

// Map of the named admission presets. The ambient preset gives every
// transaction a chance to sound; the whale preset raises the dust floor so
// only large transactions play, everything else about the policy unchanged.
var presets = map[string]Config{
	PresetAmbient: {
		DustFloor:      1_000,
		Cooldown:       40 * time.Millisecond,
		WhaleThreshold: 100_000_000,
		LargeThreshold: 10_000_000,
		MaxPolyphony:   24,
		ShedAboveRate:  10,
		ShedChance:     0.5,
	},
	PresetWhale: {
		DustFloor:      10_000_000,
		Cooldown:       40 * time.Millisecond,
		WhaleThreshold: 100_000_000,
		LargeThreshold: 10_000_000,
		MaxPolyphony:   24,
		ShedAboveRate:  10,
		ShedChance:     0.5,
	},
}

// Retrieve returns the configuration for the specified preset.
func Retrieve(preset string) (Config, error) {
	cfg, exists := presets[preset]
	if !exists {
		return Config{}, fmt.Errorf("preset %q does not exist", preset)
	}
	return cfg, nil
}
