package physics

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// Ball is a sphere rolling on the table.
// Speed is the target horizontal speed; it only grows during a ball's life.
type Ball struct {
	Position core.Vec3
	Velocity core.Vec3
	Speed    float64
	Diameter float64
	Hits     int // Paddle returns since spawn

	increment float64
}

// NewBall spawns a ball at pos moving in a random horizontal direction at
// the base speed.
func NewBall(pos core.Vec3, t Tuning, rng *rand.Rand) *Ball {
	b := &Ball{
		Position:  core.V3(pos.X, t.BallDiameter/2, pos.Z),
		Speed:     t.BallSpeed,
		Diameter:  t.BallDiameter,
		increment: t.SpeedIncrement,
	}
	b.Velocity = randomHeading(rng).Scale(b.Speed)
	return b
}

// Radius returns half the diameter.
func (b *Ball) Radius() float64 {
	return b.Diameter / 2
}

// Sphere returns the collision volume at the current position.
func (b *Ball) Sphere() core.Sphere {
	return core.Sphere{Center: b.Position, Radius: b.Radius()}
}

// Update resolves contacts against paddles and walls, keeps the ball on the
// table, restores its horizontal speed and integrates one step.
// Frozen paddles are ignored.
func (b *Ball) Update(paddles []*Paddle, walls []Wall, rng *rand.Rand, dt float64) {
	for _, p := range paddles {
		if p.Frozen {
			continue
		}
		if b.bounce(p.Box()) {
			b.Speed += b.increment
			b.Hits++
		}
	}
	for _, w := range walls {
		b.bounce(w.Box)
	}

	// The game is planar: no vertical motion, height pinned to the table.
	b.Velocity.Y = 0
	b.Position.Y = b.Radius()

	switch h := b.Velocity.LenXZ(); {
	case h < core.Epsilon:
		b.Velocity = randomHeading(rng).Scale(b.Speed)
	case h < b.Speed:
		b.Velocity = b.Velocity.Scale(b.Speed / h)
	}

	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

// bounce pushes the ball out of box and reflects its velocity when it was
// moving into the contact. It reports whether a reflection happened.
func (b *Ball) bounce(box core.Box) bool {
	n, depth, ok := box.SphereContact(b.Sphere())
	if !ok {
		return false
	}
	b.Position = b.Position.Add(n.Scale(depth))
	if b.Velocity.Dot(n) >= 0 {
		return false
	}
	b.Velocity = b.Velocity.Reflect(n)
	return true
}

func randomHeading(rng *rand.Rand) core.Vec3 {
	return core.Direction2D(rng.Float64() * 2 * math.Pi)
}
