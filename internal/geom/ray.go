package geom

// Ray has a point origin and a vector direction (not necessarily unit).
type Ray struct {
	Origin    Vector4
	Direction Vector4
}

func NewRay(origin, direction Vector4) Ray { return Ray{Origin: origin, Direction: direction} }

// Position returns the point at parametric distance t.
func (r Ray) Position(t Real) Vector4 { return r.Origin.Add(r.Direction.Mul(t)) }

// Transform maps both origin and direction through m.
func (r Ray) Transform(m Mat4) Ray {
	return Ray{Origin: m.MulVec(r.Origin), Direction: m.MulVec(r.Direction)}
}
