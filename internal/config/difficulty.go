package config

import "math"

// DifficultyManager derives match parameters from the difficulty level.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// SetInitialLevel overrides the difficulty level (0.0 to 1.0).
func (d *DifficultyManager) SetInitialLevel(level float64) {
	d.initialLevel = clampF(level, 0.0, 1.0)
}

// SetEnabled enables or disables the per-hit speed ramp.
func (d *DifficultyManager) SetEnabled(enabled bool) {
	d.cfg.Enabled = enabled
}

// IsEnabled returns whether balls speed up on paddle hits.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled
}

// Level returns the difficulty level (0.0 to 1.0).
func (d *DifficultyManager) Level() float64 {
	return d.initialLevel
}

// Speed returns the ball serve speed for the current level.
func (d *DifficultyManager) Speed(baseSpeed float64) float64 {
	// Speed increases from base to base * (1 + speedMultiplier)
	return baseSpeed * (1.0 + d.initialLevel*d.cfg.Scaling.SpeedMultiplier)
}

// Increment returns the per-hit speed increment, zero when the ramp is off.
func (d *DifficultyManager) Increment(baseIncrement float64) float64 {
	if !d.cfg.Enabled {
		return 0
	}
	return baseIncrement
}

// BotSkill returns the CPU skill for the current level.
func (d *DifficultyManager) BotSkill(baseSkill float64) float64 {
	return clampF(baseSkill+d.initialLevel*d.cfg.Scaling.SkillBonus, 0.1, 1.0)
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
