package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/physics"
)

//go:embed defaults/arena.yaml
var defaultArenaYAML []byte

// DefaultArenaConfig returns the default arena configuration.
func DefaultArenaConfig() ArenaConfig {
	t := physics.DefaultTuning()
	return ArenaConfig{
		Physics: PhysicsConfig{
			BallSpeed:          t.BallSpeed,
			SpeedIncrement:     t.SpeedIncrement,
			BallDiameter:       t.BallDiameter,
			PaddleMaxSpeed:     t.PaddleMaxSpeed,
			PaddleAcceleration: t.PaddleAcceleration,
			PaddleWidth:        t.PaddleSize.X,
			PaddleDepth:        t.PaddleSize.Z,
			PaddleOffset:       t.PaddleOffset,
			ScoreCooldown:      t.ScoreCooldown,
		},
		Match: MatchConfig{
			TickRate:          60,
			StartCountdown:    180,
			ServeDelay:        60,
			IdleTimeout:       2 * time.Minute,
			FinishedRetention: 30 * time.Second,
			CleanupPeriod:     10 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			HostKeyPath:  ".ssh/arena_ed25519",
			DBPath:       "arena.db",
			LobbyTimeout: 2 * time.Minute,
			BotFillAfter: 30 * time.Second,
		},
		Client: ClientConfig{
			SendInterval: 50 * time.Millisecond,
			FlyIn:        2 * time.Second,
			Codec:        "json",
		},
		Bots: BotConfig{
			Skill: 0.6,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.3,
			Scaling: ScalingConfig{
				SpeedMultiplier: 0.5,
				SkillBonus:      0.3,
			},
		},
	}
}

// Tuning converts the physics section into simulation constants, with the
// difficulty level applied.
func (c ArenaConfig) Tuning() physics.Tuning {
	d := NewDifficultyManager(c.Difficulty)
	t := physics.DefaultTuning()
	t.BallSpeed = d.Speed(c.Physics.BallSpeed)
	t.SpeedIncrement = d.Increment(c.Physics.SpeedIncrement)
	t.BallDiameter = c.Physics.BallDiameter
	t.PaddleMaxSpeed = c.Physics.PaddleMaxSpeed
	t.PaddleAcceleration = c.Physics.PaddleAcceleration
	t.PaddleSize = core.V3(c.Physics.PaddleWidth, t.PaddleSize.Y, c.Physics.PaddleDepth)
	t.PaddleOffset = c.Physics.PaddleOffset
	t.ScoreCooldown = c.Physics.ScoreCooldown
	return t
}

// BotSkill returns the CPU skill with the difficulty level applied.
func (c ArenaConfig) BotSkill() float64 {
	return NewDifficultyManager(c.Difficulty).BotSkill(c.Bots.Skill)
}
