// Package world turns a declarative arena map into the bodies of a match.
package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/arena-pong/internal/core"
)

// Dimensions is the playable floor size. Width runs along X, Height along Z.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BallSpec is a ball spawn point.
type BallSpec struct {
	Location core.Vec3 `json:"location"`
}

// WallSpec describes a static obstacle.
type WallSpec struct {
	Dimensions    core.Vec3 `json:"dimensions"`
	Location      core.Vec3 `json:"location"`
	SurfaceNormal core.Vec3 `json:"surfaceNormal"`
}

// GoalSpec describes one player's goal. SurfaceNormal points into the arena.
type GoalSpec struct {
	Location      core.Vec3 `json:"location"`
	Dimensions    core.Vec3 `json:"dimensions"`
	Post1         core.Vec3 `json:"post1"`
	Post2         core.Vec3 `json:"post2"`
	SurfaceNormal core.Vec3 `json:"surfaceNormal"`
}

// Map is the JSON arena description.
// Pointer and slice fields stay nil when the key is absent so missing
// sections can be told apart from empty ones.
type Map struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Dimensions  *Dimensions `json:"dimensions"`
	Balls       []BallSpec  `json:"balls"`
	Walls       []WallSpec  `json:"walls"`
	Goals       []GoalSpec  `json:"goals"`
}

// Parse decodes and validates a JSON map.
func Parse(data []byte) (Map, error) {
	var m Map
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return Map{}, fmt.Errorf("world: decode map: %v: %w", err, core.ErrConfiguration)
	}
	if err := m.Validate(); err != nil {
		return Map{}, err
	}
	return m, nil
}

// Validate checks the structural rules every playable map must satisfy.
func (m Map) Validate() error {
	if m.Dimensions == nil {
		return mapErr(m, "missing dimensions")
	}
	if m.Dimensions.Width <= 0 || m.Dimensions.Height <= 0 {
		return mapErr(m, "dimensions must be positive")
	}
	if m.Balls == nil {
		return mapErr(m, "missing balls")
	}
	if len(m.Balls) == 0 {
		return mapErr(m, "at least one ball is required")
	}
	if m.Goals == nil {
		return mapErr(m, "missing goals")
	}
	if len(m.Goals) > core.MaxPlayers {
		return mapErr(m, fmt.Sprintf("%d goals exceed the limit of %d", len(m.Goals), core.MaxPlayers))
	}
	if len(m.Goals) < 2 {
		return mapErr(m, "at least two goals are required")
	}
	for i, g := range m.Goals {
		if g.SurfaceNormal.Flat().IsZero() {
			return mapErr(m, fmt.Sprintf("goal %d has no surface normal", i))
		}
		if g.Dimensions.X <= 0 || g.Dimensions.Z <= 0 {
			return mapErr(m, fmt.Sprintf("goal %d has empty dimensions", i))
		}
	}
	for i, w := range m.Walls {
		if w.Dimensions.X <= 0 || w.Dimensions.Z <= 0 {
			return mapErr(m, fmt.Sprintf("wall %d has empty dimensions", i))
		}
	}
	return nil
}

// PlayerCount returns how many players the map seats.
func (m Map) PlayerCount() int {
	return len(m.Goals)
}

func mapErr(m Map, msg string) error {
	name := m.Name
	if name == "" {
		name = "unnamed"
	}
	return fmt.Errorf("world: map %s: %s: %w", name, msg, core.ErrConfiguration)
}
