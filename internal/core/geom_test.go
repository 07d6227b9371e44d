package core

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func approxVec(a, b Vec3) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) && approx(a.Z, b.Z)
}

func TestClampF(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tc := range tests {
		if got := ClampF(tc.val, tc.lo, tc.hi); got != tc.expected {
			t.Errorf("ClampF(%v, %v, %v) = %v, expected %v", tc.val, tc.lo, tc.hi, got, tc.expected)
		}
	}
}

func TestSignAbs(t *testing.T) {
	if Sign(-2.5) != -1 || Sign(0) != 0 || Sign(3) != 1 {
		t.Error("Sign returned unexpected values")
	}
	if Abs(-4) != 4 || Abs(4) != 4 {
		t.Error("Abs returned unexpected values")
	}
}

func TestVecNormalize(t *testing.T) {
	v := V3(3, 0, 4).Normalize()
	if !approx(v.Len(), 1) {
		t.Errorf("normalized length = %v, expected 1", v.Len())
	}
	if z := V3(1e-12, 0, 0).Normalize(); !z.IsZero() {
		t.Errorf("tiny vector should normalize to zero, got %+v", z)
	}
}

func TestVecRotateYAlignsWithYaw(t *testing.T) {
	dirs := []Vec3{
		V3(1, 0, 0),
		V3(0, 0, -1),
		V3(-1, 0, 1).Normalize(),
		V3(0.3, 0, -0.7).Normalize(),
	}
	for _, d := range dirs {
		got := V3(0, 0, 1).RotateY(d.Yaw())
		if !approxVec(got, d) {
			t.Errorf("RotateY(+Z, yaw(%+v)) = %+v", d, got)
		}
	}
}

func TestVecReflect(t *testing.T) {
	v := V3(1, 0, -1)
	got := v.Reflect(V3(0, 0, 1))
	if !approxVec(got, V3(1, 0, 1)) {
		t.Errorf("Reflect() = %+v, expected (1,0,1)", got)
	}
}

func TestBoxSphereContact(t *testing.T) {
	box := NewBox(V3(0, 0, 0), V3(4, 1, 2), V3(0, 0, 1))

	tests := []struct {
		name       string
		sphere     Sphere
		hit        bool
		wantNormal Vec3
	}{
		{"touching front face", Sphere{Center: V3(0, 0, 1.4), Radius: 0.5}, true, V3(0, 0, 1)},
		{"touching side face", Sphere{Center: V3(2.3, 0, 0), Radius: 0.5}, true, V3(1, 0, 0)},
		{"far away", Sphere{Center: V3(0, 0, 3), Radius: 0.5}, false, Vec3{}},
		{"inside pushes along shallow axis", Sphere{Center: V3(0, 0, -0.8), Radius: 0.1}, true, V3(0, 0, -1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, depth, ok := box.SphereContact(tc.sphere)
			if ok != tc.hit {
				t.Fatalf("SphereContact() ok = %v, expected %v", ok, tc.hit)
			}
			if !ok {
				return
			}
			if depth <= 0 {
				t.Errorf("depth = %v, expected positive", depth)
			}
			if !approxVec(n, tc.wantNormal) {
				t.Errorf("normal = %+v, expected %+v", n, tc.wantNormal)
			}
		})
	}
}

func TestRotatedBoxContains(t *testing.T) {
	// Long thin box rotated 90 degrees: extends along Z instead of X.
	box := NewBox(V3(0, 0, 0), V3(6, 1, 1), V3(1, 0, 0))
	if !box.ContainsXZ(V3(0, 0, 2.5)) {
		t.Error("rotated box should contain point along world Z")
	}
	if box.ContainsXZ(V3(2.5, 0, 0)) {
		t.Error("rotated box should not contain point along world X")
	}
}

func TestBoxIntersects(t *testing.T) {
	a := NewBox(V3(0, 0, 0), V3(2, 1, 2), Vec3{})

	tests := []struct {
		name     string
		b        Box
		expected bool
	}{
		{"overlapping", NewBox(V3(1.5, 0, 0), V3(2, 1, 2), Vec3{}), true},
		{"touching faces", NewBox(V3(2, 0, 0), V3(2, 1, 2), Vec3{}), false},
		{"separated", NewBox(V3(5, 0, 0), V3(2, 1, 2), Vec3{}), false},
		{"rotated corner overlap", NewBox(V3(2.2, 0, 0), V3(2, 1, 2), V3(1, 0, 1)), true},
		{"rotated clear", NewBox(V3(2.5, 0, 0), V3(2, 1, 2), V3(1, 0, 1)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Intersects(tc.b); got != tc.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tc.expected)
			}
		})
	}
}
