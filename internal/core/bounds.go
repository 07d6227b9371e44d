package core

import "math"

// Sphere is the collision volume of a ball.
type Sphere struct {
	Center Vec3
	Radius float64
}

// Box is an oriented bounding box that may rotate about the Y axis only.
// Local +X runs along the box face (the tangent), local +Z along its facing
// direction. Collision tests work in the XZ plane; the arena has no stacking.
type Box struct {
	Center Vec3
	Half   Vec3    // Half extents in local space
	Yaw    float64 // Rotation about Y applied to local space
}

// NewBox builds a box of the given full size centred at center whose local
// +Z axis points along facing. A zero facing leaves the box axis-aligned.
func NewBox(center, size, facing Vec3) Box {
	yaw := 0.0
	if !facing.Flat().IsZero() {
		yaw = facing.Yaw()
	}
	return Box{
		Center: center,
		Half:   size.Scale(0.5),
		Yaw:    yaw,
	}
}

// Translate returns the box moved by d.
func (b Box) Translate(d Vec3) Box {
	b.Center = b.Center.Add(d)
	return b
}

// Right returns the world-space unit vector of local +X.
func (b Box) Right() Vec3 {
	return V3(1, 0, 0).RotateY(b.Yaw)
}

// Forward returns the world-space unit vector of local +Z.
func (b Box) Forward() Vec3 {
	return V3(0, 0, 1).RotateY(b.Yaw)
}

// ToLocal converts a world-space point into the box's local frame.
func (b Box) ToLocal(p Vec3) Vec3 {
	return p.Sub(b.Center).RotateY(-b.Yaw)
}

// ToWorld converts a local-space direction into world space.
func (b Box) ToWorld(dir Vec3) Vec3 {
	return dir.RotateY(b.Yaw)
}

// Corners returns the four XZ corners of the box in world space.
func (b Box) Corners() [4]Vec3 {
	r := b.Right().Scale(b.Half.X)
	f := b.Forward().Scale(b.Half.Z)
	return [4]Vec3{
		b.Center.Add(r).Add(f).Flat(),
		b.Center.Add(r).Sub(f).Flat(),
		b.Center.Sub(r).Sub(f).Flat(),
		b.Center.Sub(r).Add(f).Flat(),
	}
}

// ContainsXZ reports whether p lies inside the box footprint.
func (b Box) ContainsXZ(p Vec3) bool {
	l := b.ToLocal(p)
	return math.Abs(l.X) <= b.Half.X && math.Abs(l.Z) <= b.Half.Z
}

// IntersectsSphere reports whether the sphere overlaps the box footprint.
func (b Box) IntersectsSphere(s Sphere) bool {
	_, _, ok := b.SphereContact(s)
	return ok
}

// SphereContact returns the world-space normal pointing from the box toward
// the sphere and the penetration depth when they overlap.
func (b Box) SphereContact(s Sphere) (normal Vec3, depth float64, ok bool) {
	c := b.ToLocal(s.Center)
	qx := ClampF(c.X, -b.Half.X, b.Half.X)
	qz := ClampF(c.Z, -b.Half.Z, b.Half.Z)
	dx, dz := c.X-qx, c.Z-qz
	distSq := dx*dx + dz*dz
	if distSq > s.Radius*s.Radius {
		return Vec3{}, 0, false
	}

	dist := math.Sqrt(distSq)
	if dist > Epsilon {
		local := V3(dx/dist, 0, dz/dist)
		return b.ToWorld(local), s.Radius - dist, true
	}

	// Centre is inside the box: push out along the shallowest axis.
	px := b.Half.X - math.Abs(c.X)
	pz := b.Half.Z - math.Abs(c.Z)
	if px < pz {
		return b.ToWorld(V3(signOrOne(c.X), 0, 0)), px + s.Radius, true
	}
	return b.ToWorld(V3(0, 0, signOrOne(c.Z))), pz + s.Radius, true
}

// Intersects reports whether two boxes overlap in the XZ plane using the
// separating axis test. Touching faces do not count as overlap.
func (b Box) Intersects(o Box) bool {
	axes := [4]Vec3{b.Right(), b.Forward(), o.Right(), o.Forward()}
	delta := o.Center.Sub(b.Center).Flat()
	for _, axis := range axes {
		dist := math.Abs(delta.Dot(axis))
		if dist >= b.projectedRadius(axis)+o.projectedRadius(axis)-Epsilon {
			return false
		}
	}
	return true
}

func (b Box) projectedRadius(axis Vec3) float64 {
	return b.Half.X*math.Abs(b.Right().Dot(axis)) + b.Half.Z*math.Abs(b.Forward().Dot(axis))
}

func signOrOne(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
