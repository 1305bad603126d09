package sim

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	log "github.com/sirupsen/logrus"
)

// Resolver chooses which copy of Params a step runs with. The authority
// captures its values once at spawn, so later edits to the local copy (a
// settings change, a tampered client) can never reach a broadcast snapshot.
type Resolver struct {
	local     *Params
	authority Params
	captured  bool
	warned    bool
}

// NewResolver captures local into the authoritative set when role is
// RoleAuthority. local stays shared with its owner and may change later.
func NewResolver(local *Params, role netconfig.Role) *Resolver {
	if local == nil {
		p := DefaultParams()
		local = &p
	}
	r := &Resolver{local: local}
	if role == netconfig.RoleAuthority {
		r.authority = *local
		r.captured = true
	}
	return r
}

// Resolve returns the parameters for a step invoked under role.
func (r *Resolver) Resolve(role netconfig.Role) Params {
	if role != netconfig.RoleAuthority {
		return *r.local
	}
	if !r.captured {
		if !r.warned {
			log.Warn("[sim] authoritative params requested from a non-authority resolver, using local values")
			r.warned = true
		}
		return *r.local
	}
	return r.authority
}

// Local exposes the locally configured parameters.
func (r *Resolver) Local() *Params {
	return r.local
}
