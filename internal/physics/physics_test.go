package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/vovakirdan/arena-pong/internal/core"
)

const dt = 1.0 / 60.0

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestPaddleAcceleration(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		dir      int
		expected float64
	}{
		{"from rest", 0, 1, 1},
		{"capped at max speed", 7.5, 1, 8},
		{"reversing doubles acceleration", 8, -1, 6},
		{"decelerates when released", 8, 0, 7},
		{"snaps to rest near zero", 1.4, 0, 0},
		{"negative side decelerates", -5, 0, -4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPaddle(core.V3(0, 0, 0), core.V3(0, 0, 1), DefaultTuning())
			p.Velocity = tc.start
			p.Update(tc.dir, nil, dt)
			if !near(p.Velocity, tc.expected) {
				t.Errorf("Velocity = %v, expected %v", p.Velocity, tc.expected)
			}
		})
	}
}

func TestPaddleStaysOnRail(t *testing.T) {
	tun := DefaultTuning()
	normal := core.V3(1, 0, -1).Normalize()
	p := NewPaddle(core.V3(2, 0, 3), normal, tun)
	walls := BoundaryWalls(20, 20, tun)
	start := p.Position

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 600; i++ {
		p.Update(rng.Intn(3)-1, walls, dt)

		offset := p.Position.Sub(start)
		// Component orthogonal to the rail must never change.
		ortho := offset.Sub(p.Up.Scale(offset.Dot(p.Up)))
		if ortho.Len() > 1e-9 {
			t.Fatalf("tick %d: paddle left its rail by %v", i, ortho.Len())
		}
	}
}

func TestPaddleStopsAtWall(t *testing.T) {
	tun := DefaultTuning()
	p := NewPaddle(core.V3(0, 0, 0), core.V3(0, 0, 1), tun)
	// Wall face at x = 1; the paddle's right edge reaches it at x = 0.
	wall := NewWall(core.V3(1.5, 0, 0), core.V3(4, 1, 1), core.V3(-1, 0, 0))

	for i := 0; i < 120; i++ {
		p.Update(1, []Wall{wall}, dt)
		if p.Box().Intersects(wall.Box) {
			t.Fatalf("tick %d: paddle overlaps wall at %+v", i, p.Position)
		}
	}
	if p.Position.X > 0 || p.Position.X < -0.05 {
		t.Errorf("paddle should rest against the wall face, pos=%+v", p.Position)
	}
}

func TestFrozenPaddleDoesNotMove(t *testing.T) {
	p := NewPaddle(core.V3(0, 0, 0), core.V3(0, 0, 1), DefaultTuning())
	p.Freeze()
	p.Update(1, nil, dt)
	if p.Position != (core.Vec3{}) || p.Velocity != 0 {
		t.Errorf("frozen paddle moved: %+v v=%v", p.Position, p.Velocity)
	}
}

func TestBallSpeedRamp(t *testing.T) {
	tun := DefaultTuning()
	rng := rand.New(rand.NewSource(1))
	paddle := NewPaddle(core.V3(0, 0, -1), core.V3(0, 0, 1), tun)
	ball := NewBall(core.Vec3{}, tun, rng)

	// Front face of the paddle sits at z = -0.85.
	contact := core.V3(0, ball.Radius(), -0.65)

	for n := 1; n <= 5; n++ {
		ball.Position = contact
		ball.Velocity = core.V3(0, 0, -ball.Speed)
		ball.Update([]*Paddle{paddle}, nil, rng, dt)

		want := tun.BallSpeed + float64(n)*tun.SpeedIncrement
		if !near(ball.Speed, want) {
			t.Fatalf("after %d hits Speed = %v, expected %v", n, ball.Speed, want)
		}
		if !near(ball.Velocity.LenXZ(), want) {
			t.Fatalf("after %d hits |v| = %v, expected %v", n, ball.Velocity.LenXZ(), want)
		}
		if ball.Velocity.Z <= 0 {
			t.Fatalf("ball should leave the paddle, v=%+v", ball.Velocity)
		}
	}
	if ball.Hits != 5 {
		t.Errorf("Hits = %d, expected 5", ball.Hits)
	}
}

func TestBallWallBounceKeepsSpeed(t *testing.T) {
	tun := DefaultTuning()
	rng := rand.New(rand.NewSource(1))
	walls := BoundaryWalls(10, 10, tun)
	ball := NewBall(core.Vec3{}, tun, rng)
	ball.Position = core.V3(4.9, ball.Radius(), 0)
	ball.Velocity = core.V3(10, 0, 0)

	ball.Update(nil, walls, rng, dt)

	if ball.Velocity.X >= 0 {
		t.Errorf("ball should bounce off the east wall, v=%+v", ball.Velocity)
	}
	if !near(ball.Velocity.LenXZ(), tun.BallSpeed) {
		t.Errorf("|v| = %v, expected %v", ball.Velocity.LenXZ(), tun.BallSpeed)
	}
	if ball.Speed != tun.BallSpeed {
		t.Errorf("wall bounce changed Speed to %v", ball.Speed)
	}
}

func TestBallRecoversFromZeroVelocity(t *testing.T) {
	tun := DefaultTuning()
	rng := rand.New(rand.NewSource(3))
	ball := NewBall(core.Vec3{}, tun, rng)
	ball.Velocity = core.V3(0, 4, 0)

	ball.Update(nil, nil, rng, dt)

	if ball.Velocity.Y != 0 {
		t.Errorf("vertical velocity should be zeroed, got %v", ball.Velocity.Y)
	}
	if !near(ball.Velocity.LenXZ(), tun.BallSpeed) {
		t.Errorf("|v| = %v, expected %v", ball.Velocity.LenXZ(), tun.BallSpeed)
	}
	if ball.Position.Y != ball.Radius() {
		t.Errorf("ball height = %v, expected %v", ball.Position.Y, ball.Radius())
	}
}

func TestGoalScoringDebounce(t *testing.T) {
	tun := DefaultTuning()
	rng := rand.New(rand.NewSource(1))
	goal := NewGoal(
		core.V3(0, 0, -4.75), core.V3(4, 1, 0.5),
		core.V3(-2.2, 0, -4.75), core.V3(2.2, 0, -4.75),
		core.V3(0, 0, 1), tun,
	)
	ball := NewBall(core.Vec3{}, tun, rng)
	ball.Position = core.V3(0, ball.Radius(), -4.6)
	ball.Velocity = core.V3(0, 0, -10)

	// Several balls touch the plate on every tick; only ticks advance the cooldown.
	var results []bool
	for i := 0; i < 7; i++ {
		goal.Tick()
		scored := false
		for range 3 {
			if goal.Score(ball) {
				scored = true
			}
		}
		results = append(results, scored)
	}

	for i := 0; i+3 <= len(results); i++ {
		count := 0
		for _, r := range results[i : i+3] {
			if r {
				count++
			}
		}
		if count > 1 {
			t.Fatalf("window %d scored %d times: %v", i, count, results)
		}
	}
	if !results[0] || !results[3] {
		t.Errorf("goal should score again once the cooldown expires: %v", results)
	}
}

func TestGoalScoreConditions(t *testing.T) {
	tun := DefaultTuning()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name     string
		pos      core.Vec3
		vel      core.Vec3
		alive    bool
		expected bool
	}{
		{"moving into goal", core.V3(0, 0, -4.6), core.V3(0, 0, -10), true, true},
		{"moving out of goal", core.V3(0, 0, -4.6), core.V3(0, 0, 10), true, false},
		{"not touching plate", core.V3(0, 0, -2), core.V3(0, 0, -10), true, false},
		{"no velocity", core.V3(0, 0, -4.6), core.Vec3{}, true, false},
		{"eliminated goal", core.V3(0, 0, -4.6), core.V3(0, 0, -10), false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			goal := NewGoal(
				core.V3(0, 0, -4.75), core.V3(4, 1, 0.5),
				core.V3(-2.2, 0, -4.75), core.V3(2.2, 0, -4.75),
				core.V3(0, 0, 1), tun,
			)
			if !tc.alive {
				goal.Eliminate()
			}
			ball := NewBall(core.Vec3{}, tun, rng)
			ball.Position = tc.pos
			ball.Velocity = tc.vel
			if got := goal.Score(ball); got != tc.expected {
				t.Errorf("Score() = %v, expected %v", got, tc.expected)
			}
		})
	}
}
