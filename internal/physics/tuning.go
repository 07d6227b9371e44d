// Package physics holds the rigid bodies of an arena match and their
// per-tick update rules. Everything moves in the XZ plane; Y is only used
// to keep balls resting on the table.
package physics

import "github.com/vovakirdan/arena-pong/internal/core"

// Tuning holds the physical constants shared by every body of one match.
// Values are in arena units, seconds and ticks.
type Tuning struct {
	BallSpeed          float64   // Base ball speed, units/s
	SpeedIncrement     float64   // Added to a ball's speed on every paddle return
	BallDiameter       float64   //
	PaddleMaxSpeed     float64   // units/s along the rail
	PaddleAcceleration float64   // Velocity change per tick
	PaddleSize         core.Vec3 // X along the rail, Z along the goal normal
	PaddleOffset       float64   // Distance from goal plate to paddle centre
	PostSize           core.Vec3
	WallThickness      float64
	WallHeight         float64
	ScoreCooldown      int     // Ticks a goal ignores contacts after scoring
	UndoOffset         float64 // Paddle backs off walls by this much on contact
}

// DefaultTuning returns the standard arena constants.
func DefaultTuning() Tuning {
	return Tuning{
		BallSpeed:          10,
		SpeedIncrement:     0.3,
		BallDiameter:       0.5,
		PaddleMaxSpeed:     8,
		PaddleAcceleration: 1,
		PaddleSize:         core.V3(2, 0.5, 0.3),
		PaddleOffset:       1,
		PostSize:           core.V3(0.4, 1, 3),
		WallThickness:      1,
		WallHeight:         1,
		ScoreCooldown:      3,
		UndoOffset:         0.01,
	}
}

// Validate rejects tunings that would make the simulation degenerate.
func (t Tuning) Validate() error {
	switch {
	case t.BallSpeed <= 0:
		return configErr("ball speed must be positive")
	case t.SpeedIncrement < 0:
		return configErr("speed increment must not be negative")
	case t.BallDiameter <= 0:
		return configErr("ball diameter must be positive")
	case t.PaddleMaxSpeed <= 0 || t.PaddleAcceleration <= 0:
		return configErr("paddle speed and acceleration must be positive")
	case t.PaddleSize.X <= 0 || t.PaddleSize.Z <= 0:
		return configErr("paddle size must be positive")
	case t.ScoreCooldown < 1:
		return configErr("score cooldown must be at least one tick")
	}
	return nil
}
