package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Address is the network location a node advertises to the cluster.
type Address struct {
	Host        string
	Port        int
	TLSPort     int
	ServiceName string
}

// HostPort returns the plaintext host:port form of the address.
func (a Address) HostPort() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// IdentityRecord identifies this node for cluster membership. Immutable once
// built; a single instance exists per process.
type IdentityRecord struct {
	// ID is a per-process instance id, fresh on every start.
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	TLSPort   int       `json:"tls_port"`
	Role      Role      `json:"role"`
	StartedAt time.Time `json:"started_at"`
}

// HostPort returns the plaintext host:port the record advertises.
func (r *IdentityRecord) HostPort() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IdentityRegistry produces the process-wide node identity record. Its
// lifecycle is independent of the capability resolver: a failure building
// one never touches the other.
type IdentityRegistry struct {
	role Role
	addr Address

	once sync.Once
	rec  *IdentityRecord
	err  error
}

// NewIdentityRegistry captures the role and address metadata.
func NewIdentityRegistry(role Role, addr Address) *IdentityRegistry {
	return &IdentityRegistry{role: role, addr: addr}
}

// Identity returns the node identity record, building it on first call.
// Repeated calls return the identical record. Identity construction does not
// depend on storage configuration, only on a bound role.
func (g *IdentityRegistry) Identity() (*IdentityRecord, error) {
	g.once.Do(func() {
		if !g.role.Bound() {
			g.err = missingRole("node identity record")
			return
		}
		g.rec = &IdentityRecord{
			ID:        uuid.NewString(),
			Name:      g.addr.ServiceName,
			Host:      g.addr.Host,
			Port:      g.addr.Port,
			TLSPort:   g.addr.TLSPort,
			Role:      g.role,
			StartedAt: time.Now().UTC(),
		}
	})
	return g.rec, g.err
}
