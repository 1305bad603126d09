package reconcile

import (
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// Runner is the command-kind independent view of an Engine, so entities of
// every kind can live side by side in one world.
type Runner interface {
	EntityID() netconfig.EntityID
	Bind(id netconfig.EntityID)
	Role() netconfig.Role
	Tick(now float64)
	DeliverSnapshot(s messages.Snapshot)
	DeliverCommand(msg any) error
	Pose(now float64) (netcomponents.Pose, bool)
	State() netcomponents.State
	LastTick() netconfig.Tick
	Confirmed() netconfig.Tick
	Stats() Stats
	TakeCorrection() (mgl64.Vec3, bool)
	Close()
	Closed() bool
}

var (
	_ Runner = (*Engine[messages.Command])(nil)
	_ Runner = (*Engine[messages.ProjectileCommand])(nil)
)

// Bind attaches a network id to an engine created before it had one, such
// as a predicted projectile the authority has since spawned.
func (e *Engine[C]) Bind(id netconfig.EntityID) {
	e.cfg.EntityID = id
}
