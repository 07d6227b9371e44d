package physics

import "github.com/vovakirdan/arena-pong/internal/core"

// Goal is a scoring plate flanked by two posts. Normal points into the
// arena; a ball moving against it while touching the plate scores.
type Goal struct {
	Plate    core.Box
	Posts    [2]Wall
	Normal   core.Vec3
	Alive    bool
	Cooldown int // Ticks left before the goal can score again

	cooldownTicks int
}

// NewGoal builds a live goal. normal must be non-zero.
func NewGoal(center, size, post1, post2, normal core.Vec3, t Tuning) *Goal {
	plate := core.NewBox(center, size, normal)
	return &Goal{
		Plate:  plate,
		Normal: plate.Forward(),
		Posts: [2]Wall{
			NewWall(post1, t.PostSize, normal),
			NewWall(post2, t.PostSize, normal),
		},
		Alive:         true,
		cooldownTicks: t.ScoreCooldown,
	}
}

// Eliminate disables scoring on the goal. The plate stays in the world.
func (g *Goal) Eliminate() {
	g.Alive = false
	g.Cooldown = 0
}

// AsWall returns the plate as a solid collider, used once the goal is out.
func (g *Goal) AsWall() Wall {
	return Wall{Box: g.Plate}
}

// Tick advances the scoring cooldown. It must run exactly once per
// simulated tick, before any Score call of that tick.
func (g *Goal) Tick() {
	if g.Cooldown > 0 {
		g.Cooldown--
	}
}

// Score reports whether b has entered the goal. A positive result blocks
// the goal for cooldownTicks ticks, the scoring tick included.
func (g *Goal) Score(b *Ball) bool {
	if !g.Alive || g.Cooldown > 0 {
		return false
	}
	if !g.Plate.IntersectsSphere(b.Sphere()) {
		return false
	}
	dir := b.Velocity.Flat().Normalize()
	if dir.IsZero() {
		return false
	}
	if dir.Dot(g.Normal) >= 0 {
		return false
	}
	g.Cooldown = g.cooldownTicks
	return true
}
