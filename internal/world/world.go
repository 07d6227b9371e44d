package world

import (
	"math/rand"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/physics"
)

// World is the full body set of one match. Goals and paddles share an
// index: paddle i defends goal i.
type World struct {
	Map     Map
	Tuning  physics.Tuning
	Walls   []physics.Wall
	Goals   []*physics.Goal
	Paddles []*physics.Paddle
	Balls   []*physics.Ball
}

// Build validates m and constructs its bodies. Four boundary walls enclose
// the floor regardless of what the map declares.
func Build(m Map, t physics.Tuning, rng *rand.Rand) (*World, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	w := &World{Map: m, Tuning: t}
	w.Walls = physics.BoundaryWalls(m.Dimensions.Width, m.Dimensions.Height, t)
	for _, ws := range m.Walls {
		w.Walls = append(w.Walls, physics.NewWall(ws.Location, ws.Dimensions, ws.SurfaceNormal))
	}

	for _, gs := range m.Goals {
		g := physics.NewGoal(gs.Location, gs.Dimensions, gs.Post1, gs.Post2, gs.SurfaceNormal, t)
		w.Goals = append(w.Goals, g)

		spawn := gs.Location.Add(g.Normal.Scale(t.PaddleOffset))
		w.Paddles = append(w.Paddles, physics.NewPaddle(spawn, g.Normal, t))
	}

	w.SpawnBalls(rng)
	return w, nil
}

// SpawnBalls replaces the active ball set with fresh balls at the map's
// spawn points.
func (w *World) SpawnBalls(rng *rand.Rand) {
	w.Balls = w.Balls[:0]
	for _, bs := range w.Map.Balls {
		w.Balls = append(w.Balls, physics.NewBall(bs.Location, w.Tuning, rng))
	}
}

// ResetPaddles returns every paddle to its spawn point.
func (w *World) ResetPaddles() {
	for _, p := range w.Paddles {
		p.Reset()
	}
}

// PaddleColliders returns what a paddle can run into: walls and goal posts.
func (w *World) PaddleColliders() []physics.Wall {
	out := make([]physics.Wall, 0, len(w.Walls)+2*len(w.Goals))
	out = append(out, w.Walls...)
	for _, g := range w.Goals {
		out = append(out, g.Posts[0], g.Posts[1])
	}
	return out
}

// BallColliders returns what a ball bounces off. Eliminated goals are
// sealed by their plate.
func (w *World) BallColliders() []physics.Wall {
	out := w.PaddleColliders()
	for _, g := range w.Goals {
		if !g.Alive {
			out = append(out, g.AsWall())
		}
	}
	return out
}

// RemoveBall drops the ball at index i from the active set.
func (w *World) RemoveBall(i int) {
	w.Balls = append(w.Balls[:i], w.Balls[i+1:]...)
}

// Clear releases every body.
func (w *World) Clear() {
	w.Walls = nil
	w.Goals = nil
	w.Paddles = nil
	w.Balls = nil
}

// Size returns the floor size.
func (w *World) Size() (width, height float64) {
	return w.Map.Dimensions.Width, w.Map.Dimensions.Height
}

// SpawnPoint returns the spawn location of ball i.
func (w *World) SpawnPoint(i int) core.Vec3 {
	return w.Map.Balls[i].Location
}
