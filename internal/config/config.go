// Package config provides YAML-based configuration loading and difficulty
// presets for the arena server and clients.
package config

import "time"

// ArenaConfig contains all configuration for arena matches.
type ArenaConfig struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Match      MatchConfig      `yaml:"match"`
	Server     ServerConfig     `yaml:"server"`
	Client     ClientConfig     `yaml:"client"`
	Bots       BotConfig        `yaml:"bots"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// PhysicsConfig defines body tuning. Distances are world units, speeds
// units per second.
type PhysicsConfig struct {
	BallSpeed          float64 `yaml:"ball_speed"`
	SpeedIncrement     float64 `yaml:"speed_increment"` // Added on every paddle hit
	BallDiameter       float64 `yaml:"ball_diameter"`
	PaddleMaxSpeed     float64 `yaml:"paddle_max_speed"`
	PaddleAcceleration float64 `yaml:"paddle_acceleration"` // Per tick
	PaddleWidth        float64 `yaml:"paddle_width"`
	PaddleDepth        float64 `yaml:"paddle_depth"`
	PaddleOffset       float64 `yaml:"paddle_offset"` // Distance in front of the goal
	ScoreCooldown      int     `yaml:"score_cooldown"`
}

// MatchConfig defines the match loop.
type MatchConfig struct {
	TickRate          int           `yaml:"tick_rate"`
	StartCountdown    int           `yaml:"start_countdown"` // Ticks
	ServeDelay        int           `yaml:"serve_delay"`     // Ticks
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	FinishedRetention time.Duration `yaml:"finished_retention"`
	CleanupPeriod     time.Duration `yaml:"cleanup_period"`
}

// ServerConfig defines the network listeners and persistence.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`     // HTTP and websocket
	SSHAddr      string        `yaml:"ssh_addr"` // Empty disables SSH
	HostKeyPath  string        `yaml:"host_key_path"`
	DBPath       string        `yaml:"db_path"`
	LobbyTimeout time.Duration `yaml:"lobby_timeout"`
	BotFillAfter time.Duration `yaml:"bot_fill_after"` // Zero disables bot fill
}

// ClientConfig defines client behaviour.
type ClientConfig struct {
	SendInterval time.Duration `yaml:"send_interval"`
	FlyIn        time.Duration `yaml:"fly_in"`
	Codec        string        `yaml:"codec"`
}

// BotConfig defines CPU opponents.
type BotConfig struct {
	Skill float64 `yaml:"skill"` // 0.1 to 1.0
}

// DifficultyConfig scales ball speed and bot skill.
type DifficultyConfig struct {
	Enabled      bool          `yaml:"enabled"`       // False keeps ball speed constant between hits
	InitialLevel float64       `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Scaling      ScalingConfig `yaml:"scaling"`
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // Multiplier added to ball speed at max difficulty
	SkillBonus      float64 `yaml:"skill_bonus"`      // Added to bot skill at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset validates a preset name.
func ParsePreset(s string) (DifficultyPreset, bool) {
	switch p := DifficultyPreset(s); p {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p, true
	}
	return "", false
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables the speed ramp.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}
