package gamemath

import "github.com/go-gl/mathgl/mgl64"

// PlanarDirection maps two input axes onto the horizontal XZ plane and
// normalizes the result so diagonal input is not faster.
func PlanarDirection(horizontal, vertical float64) mgl64.Vec3 {
	dir := mgl64.Vec3{horizontal, 0, vertical}
	if dir.Len() == 0 {
		return mgl64.Vec3{}
	}
	return dir.Normalize()
}

// LerpVec3 interpolates linearly between a and b.
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// InverseLerp returns where v lies between a and b, clamped to [0, 1].
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return mgl64.Clamp((v-a)/(b-a), 0, 1)
}
