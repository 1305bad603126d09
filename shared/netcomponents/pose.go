package netcomponents

import (
	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// LerpPose interpolates position linearly and rotation spherically.
func LerpPose(from, to Pose, t float64) Pose {
	return Pose{
		Position: gamemath.LerpVec3(from.Position, to.Position, t),
		Rotation: gamemath.Slerp(from.Rotation, to.Rotation, t),
	}
}
