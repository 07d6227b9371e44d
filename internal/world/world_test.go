package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/physics"
)

const duelJSON = `{
  "name": "test-duel",
  "dimensions": {"width": 10, "height": 10},
  "balls": [{"location": {"x": 0, "y": 0, "z": 0}}],
  "walls": [],
  "goals": [
    {"location": {"x": 0, "y": 0.5, "z": -4.75}, "dimensions": {"x": 6, "y": 1, "z": 0.5},
     "post1": {"x": -3.2, "y": 0.5, "z": -4.75}, "post2": {"x": 3.2, "y": 0.5, "z": -4.75},
     "surfaceNormal": {"x": 0, "y": 0, "z": 1}},
    {"location": {"x": 0, "y": 0.5, "z": 4.75}, "dimensions": {"x": 6, "y": 1, "z": 0.5},
     "post1": {"x": -3.2, "y": 0.5, "z": 4.75}, "post2": {"x": 3.2, "y": 0.5, "z": 4.75},
     "surfaceNormal": {"x": 0, "y": 0, "z": -1}}
  ]
}`

func goalJSON(z float64) string {
	return fmt.Sprintf(`{"location": {"x": 0, "y": 0, "z": %g}, "dimensions": {"x": 2, "y": 1, "z": 0.5},
		"post1": {"x": -1.2, "y": 0, "z": %g}, "post2": {"x": 1.2, "y": 0, "z": %g},
		"surfaceNormal": {"x": 0, "y": 0, "z": 1}}`, z, z, z)
}

func goalsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = goalJSON(float64(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestParseValidMap(t *testing.T) {
	m, err := Parse([]byte(duelJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.PlayerCount() != 2 {
		t.Errorf("PlayerCount() = %d, expected 2", m.PlayerCount())
	}
	if m.Goals[0].SurfaceNormal != core.V3(0, 0, 1) {
		t.Errorf("goal normal = %+v", m.Goals[0].SurfaceNormal)
	}
}

func TestParseRejectsInvalidMaps(t *testing.T) {
	dims := `"dimensions": {"width": 10, "height": 10}`
	balls := `"balls": [{"location": {"x": 0, "y": 0, "z": 0}}]`

	tests := []struct {
		name string
		json string
	}{
		{"missing dimensions", `{` + balls + `, "goals": ` + goalsJSON(2) + `}`},
		{"missing balls", `{` + dims + `, "goals": ` + goalsJSON(2) + `}`},
		{"empty balls", `{` + dims + `, "balls": [], "goals": ` + goalsJSON(2) + `}`},
		{"missing goals", `{` + dims + `, ` + balls + `}`},
		{"one goal", `{` + dims + `, ` + balls + `, "goals": ` + goalsJSON(1) + `}`},
		{"seven goals", `{` + dims + `, ` + balls + `, "goals": ` + goalsJSON(7) + `}`},
		{"unknown key", `{` + dims + `, ` + balls + `, "goals": ` + goalsJSON(2) + `, "portals": []}`},
		{"malformed json", `{"dimensions": `},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.json))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestParseAcceptsSixGoals(t *testing.T) {
	data := `{"dimensions": {"width": 20, "height": 20}, "balls": [{"location": {"x": 0, "y": 0, "z": 0}}], "goals": ` + goalsJSON(6) + `}`
	if _, err := Parse([]byte(data)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
}

func TestBuildDuel(t *testing.T) {
	m, err := Parse([]byte(duelJSON))
	if err != nil {
		t.Fatal(err)
	}
	tun := physics.DefaultTuning()
	w, err := Build(m, tun, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(w.Walls) != 4 {
		t.Errorf("walls = %d, expected 4 boundary walls", len(w.Walls))
	}
	if len(w.Goals) != 2 || len(w.Paddles) != 2 {
		t.Fatalf("goals=%d paddles=%d, expected 2 each", len(w.Goals), len(w.Paddles))
	}
	if len(w.Balls) != 1 {
		t.Fatalf("balls = %d, expected 1", len(w.Balls))
	}

	// Paddle 0 sits in front of goal 0 along its normal.
	p := w.Paddles[0]
	if math.Abs(p.Position.Z-(-4.75+tun.PaddleOffset)) > 1e-9 || p.Position.X != 0 {
		t.Errorf("paddle 0 position = %+v", p.Position)
	}
	if math.Abs(math.Abs(p.Up.X)-1) > 1e-9 {
		t.Errorf("paddle 0 should slide along X, Up = %+v", p.Up)
	}
	if n := len(w.PaddleColliders()); n != 8 {
		t.Errorf("PaddleColliders() = %d, expected 8", n)
	}

	b := w.Balls[0]
	if b.Speed != tun.BallSpeed {
		t.Errorf("ball speed = %v, expected %v", b.Speed, tun.BallSpeed)
	}
}

func TestBallCollidersSealEliminatedGoals(t *testing.T) {
	m, _ := Parse([]byte(duelJSON))
	w, err := Build(m, physics.DefaultTuning(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	before := len(w.BallColliders())
	w.Goals[1].Eliminate()
	if got := len(w.BallColliders()); got != before+1 {
		t.Errorf("BallColliders() = %d, expected %d", got, before+1)
	}
}

func TestSpawnBallsRestoresMapSet(t *testing.T) {
	m, _ := Parse([]byte(duelJSON))
	rng := rand.New(rand.NewSource(1))
	w, _ := Build(m, physics.DefaultTuning(), rng)

	w.RemoveBall(0)
	if len(w.Balls) != 0 {
		t.Fatalf("balls after remove = %d", len(w.Balls))
	}
	w.SpawnBalls(rng)
	if len(w.Balls) != 1 {
		t.Fatalf("balls after respawn = %d", len(w.Balls))
	}
	if w.Balls[0].Position.X != 0 || w.Balls[0].Position.Z != 0 {
		t.Errorf("respawned ball at %+v", w.Balls[0].Position)
	}
}
