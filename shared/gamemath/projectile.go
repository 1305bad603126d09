package gamemath

import "github.com/go-gl/mathgl/mgl64"

// LaunchVelocity returns the initial velocity of a projectile fired along aim.
// A zero aim falls back to the shooter's facing.
func LaunchVelocity(aim mgl64.Vec3, facing mgl64.Quat, speed float64) mgl64.Vec3 {
	if aim.Len() == 0 {
		aim = facing.Rotate(mgl64.Vec3{0, 0, 1})
	}
	return aim.Normalize().Mul(speed)
}
