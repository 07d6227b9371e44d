package physics

import "github.com/vovakirdan/arena-pong/internal/core"

// Wall is a static collider. It never changes after construction.
type Wall struct {
	Box core.Box
}

// NewWall creates a wall of the given size whose front faces normal.
func NewWall(center, size, normal core.Vec3) Wall {
	return Wall{Box: core.NewBox(center, size, normal)}
}

// BoundaryWalls returns the four walls enclosing a width x height arena
// centred on the origin. Their inner faces sit exactly on the arena edge.
func BoundaryWalls(width, height float64, t Tuning) []Wall {
	th := t.WallThickness
	h := t.WallHeight
	y := h / 2
	return []Wall{
		NewWall(core.V3(0, y, -(height+th)/2), core.V3(width+2*th, h, th), core.V3(0, 0, 1)),
		NewWall(core.V3(0, y, (height+th)/2), core.V3(width+2*th, h, th), core.V3(0, 0, -1)),
		NewWall(core.V3(-(width+th)/2, y, 0), core.V3(height, h, th), core.V3(1, 0, 0)),
		NewWall(core.V3((width+th)/2, y, 0), core.V3(height, h, th), core.V3(-1, 0, 0)),
	}
}
