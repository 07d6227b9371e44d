package physics

import (
	"math"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// Paddle is a rail-constrained controller: it only ever translates along Up.
type Paddle struct {
	Position     core.Vec3
	Velocity     float64   // Signed speed along Up, units/s
	Up           core.Vec3 // Rail direction, tangent to the goal
	Normal       core.Vec3 // Facing direction, into the arena
	Size         core.Vec3
	MaxSpeed     float64
	Acceleration float64
	Frozen       bool

	spawn      core.Vec3
	undoOffset float64
}

// NewPaddle places a paddle at pos facing normal. The rail runs along the
// paddle box's local X axis.
func NewPaddle(pos, normal core.Vec3, t Tuning) *Paddle {
	box := core.NewBox(pos, t.PaddleSize, normal)
	return &Paddle{
		Position:     pos,
		Up:           box.Right(),
		Normal:       box.Forward(),
		Size:         t.PaddleSize,
		MaxSpeed:     t.PaddleMaxSpeed,
		Acceleration: t.PaddleAcceleration,
		spawn:        pos,
		undoOffset:   t.UndoOffset,
	}
}

// Box returns the paddle's collision volume.
func (p *Paddle) Box() core.Box {
	return core.NewBox(p.Position, p.Size, p.Normal)
}

// Spawn returns the paddle's starting position.
func (p *Paddle) Spawn() core.Vec3 {
	return p.spawn
}

// Reset returns the paddle to its spawn point at rest.
func (p *Paddle) Reset() {
	p.Position = p.spawn
	p.Velocity = 0
}

// Freeze stops the paddle permanently.
func (p *Paddle) Freeze() {
	p.Frozen = true
	p.Velocity = 0
}

// Update steers the paddle toward dir*MaxSpeed (dir in -1..1), moves it
// along the rail and stops it dead against walls.
func (p *Paddle) Update(dir int, walls []Wall, dt float64) {
	if p.Frozen {
		return
	}
	dir = core.Clamp(dir, -1, 1)
	p.Velocity = p.nextVelocity(dir)
	if p.Velocity == 0 {
		return
	}

	step := p.Up.Scale(p.Velocity * dt)
	p.Position = p.Position.Add(step)

	box := p.Box()
	for _, w := range walls {
		if !box.Intersects(w.Box) {
			continue
		}
		back := p.Up.Scale(-core.Sign(p.Velocity) * p.undoOffset)
		p.Position = p.Position.Sub(step).Add(back)
		p.Velocity = 0
		return
	}
}

func (p *Paddle) nextVelocity(dir int) float64 {
	v := p.Velocity
	a := p.Acceleration

	if dir == 0 {
		if math.Abs(v) <= 1.5*a {
			return 0
		}
		return v - core.Sign(v)*a
	}

	target := float64(dir) * p.MaxSpeed
	if v != 0 && core.Sign(v) != core.Sign(target) {
		a *= 2
	}
	if v < target {
		return math.Min(v+a, target)
	}
	return math.Max(v-a, target)
}
