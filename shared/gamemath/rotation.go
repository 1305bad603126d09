package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var up = mgl64.Vec3{0, 1, 0}

// YawOf returns the heading of dir around the vertical axis, measured from +Z.
// The second result is false when dir has no horizontal component.
func YawOf(dir mgl64.Vec3) (float64, bool) {
	if dir.X() == 0 && dir.Z() == 0 {
		return 0, false
	}
	return math.Atan2(dir.X(), dir.Z()), true
}

// QuatFromYaw builds a rotation of yaw radians around the vertical axis.
func QuatFromYaw(yaw float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, up)
}

// YawFromQuat extracts the heading of q's forward (+Z) axis.
func YawFromQuat(q mgl64.Quat) float64 {
	yaw, _ := YawOf(q.Rotate(mgl64.Vec3{0, 0, 1}))
	return yaw
}

// WrapAngle maps a to (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// EaseYaw turns current toward targetYaw along the shortest arc by at most
// maxStep radians.
func EaseYaw(current mgl64.Quat, targetYaw, maxStep float64) mgl64.Quat {
	yaw := YawFromQuat(current)
	delta := WrapAngle(targetYaw - yaw)
	if math.Abs(delta) <= maxStep {
		return QuatFromYaw(targetYaw)
	}
	return QuatFromYaw(yaw + math.Copysign(maxStep, delta))
}

// Slerp interpolates spherically along the shortest arc between a and b.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}
