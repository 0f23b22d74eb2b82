package node

import "fmt"

// Role is the functional category a cluster node declares. The zero value
// means no role was bound; consumers that need a role fail on it.
type Role string

const (
	// RoleHistorical serves immutable data segments out of a local cache.
	RoleHistorical Role = "historical"
	// RoleBroker routes queries to the nodes holding the data.
	RoleBroker Role = "broker"
	// RoleIndexer builds new segments and hands them off to deep storage.
	RoleIndexer Role = "indexer"
	// RoleRouter fronts the cluster API surface.
	RoleRouter Role = "router"
)

// Roles lists every role a node may declare.
func Roles() []Role {
	return []Role{RoleHistorical, RoleBroker, RoleIndexer, RoleRouter}
}

// ParseRole maps a configured role name to a Role. An empty name parses to
// the unbound zero value; unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleHistorical, RoleBroker, RoleIndexer, RoleRouter, "":
		return r, nil
	default:
		return "", fmt.Errorf("unknown node role %q (valid: %v)", s, Roles())
	}
}

// Bound reports whether a role was actually supplied.
func (r Role) Bound() bool { return r != "" }

// RequiresSegmentCache reports whether the role is unusable without a local
// segment cache. The requirement is fixed per role, not configurable.
func (r Role) RequiresSegmentCache() bool {
	return r == RoleHistorical
}

func (r Role) String() string { return string(r) }
