package sim

import (
	"testing"

	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/stretchr/testify/assert"
)

func TestResolver_AuthorityCapturesAtSpawn(t *testing.T) {
	local := DefaultParams()
	r := NewResolver(&local, netconfig.RoleAuthority)

	local.MoveRate = 50

	assert.Equal(t, 5.0, r.Resolve(netconfig.RoleAuthority).MoveRate)
	assert.Equal(t, 50.0, r.Resolve(netconfig.RoleOwner).MoveRate)
}

func TestResolver_OwnerFollowsLocalEdits(t *testing.T) {
	local := DefaultParams()
	r := NewResolver(&local, netconfig.RoleOwner)

	local.JumpForce = 1
	assert.Equal(t, 1.0, r.Resolve(netconfig.RoleOwner).JumpForce)
	// Never captured: falls back to local values.
	assert.Equal(t, 1.0, r.Resolve(netconfig.RoleAuthority).JumpForce)
}

func TestResolver_NilLocalUsesDefaults(t *testing.T) {
	r := NewResolver(nil, netconfig.RoleObserver)
	assert.Equal(t, DefaultParams(), r.Resolve(netconfig.RoleObserver))
	assert.Equal(t, DefaultParams(), *r.Local())
}
