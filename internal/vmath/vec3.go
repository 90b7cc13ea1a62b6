package vmath

import "math"

// Vec3 is a float32 3-vector. Z is the vertical axis.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Vec3) float32 {
	return a.Sub(b).Length()
}

// Clamp01 clamps s into [0, 1].
func Clamp01(s float32) float32 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// AngleBetween returns the angle in radians between two unit vectors.
func AngleBetween(a, b Vec3) float32 {
	d := a.Dot(b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return float32(math.Acos(float64(d)))
}

// RotateToward rotates unit vector from toward unit vector to by at most
// maxAngle radians along the plane spanned by both. Returns to when the
// remaining angle is within maxAngle. Antiparallel inputs pivot through an
// arbitrary perpendicular axis.
func RotateToward(from, to Vec3, maxAngle float32) Vec3 {
	if maxAngle <= 0 || to.IsZero() {
		return from
	}
	angle := AngleBetween(from, to)
	if angle <= maxAngle {
		return to
	}
	// Slerp by maxAngle/angle along the great circle.
	sinA := float32(math.Sin(float64(angle)))
	if sinA < 1e-6 {
		// Antiparallel: pick any perpendicular axis to start the turn.
		perp := Vec3{-from.Y, from.X, 0}
		if perp.IsZero() {
			perp = Vec3{0, -from.Z, from.Y}
		}
		to = perp.Normalize()
		angle = AngleBetween(from, to)
		sinA = float32(math.Sin(float64(angle)))
		if angle <= maxAngle {
			return to
		}
	}
	t := maxAngle / angle
	wa := float32(math.Sin(float64((1-t)*angle))) / sinA
	wb := float32(math.Sin(float64(t*angle))) / sinA
	return from.Scale(wa).Add(to.Scale(wb)).Normalize()
}
