package components

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/yohamta/donburi"
)

// PredictedShotData marks a projectile the owner spawned locally when it
// fired, waiting for the authority's copy to adopt it.
type PredictedShotData struct {
	Shooter    netconfig.EntityID
	SourceTick netconfig.Tick
}

var PredictedShot = donburi.NewComponentType[PredictedShotData]()
