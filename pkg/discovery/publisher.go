package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"segnode/pkg/cluster"
	"segnode/pkg/node"
)

// Announcer is the membership surface the publisher needs.
type Announcer interface {
	Announce(ctx context.Context, m cluster.Member) error
}

// Publisher announces the resolved node facts to cluster membership exactly
// once per process lifetime. The capability is advertised only when the
// descriptor says it is discoverable; a non-discoverable node still
// registers bare membership so the cluster knows its address.
type Publisher struct {
	desc *node.ServiceDescriptor
	rec  *node.IdentityRecord
	ann  Announcer
	log  *slog.Logger

	once sync.Once
	err  error
}

// NewPublisher wires the resolved descriptor and identity to an announcer.
func NewPublisher(desc *node.ServiceDescriptor, rec *node.IdentityRecord, ann Announcer, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{desc: desc, rec: rec, ann: ann, log: log}
}

// Publish performs the announcement. Repeat calls return the first outcome
// without re-announcing.
func (p *Publisher) Publish(ctx context.Context) error {
	p.once.Do(func() {
		p.err = p.publish(ctx)
	})
	return p.err
}

func (p *Publisher) publish(ctx context.Context) error {
	member := cluster.Member{
		ID:           p.rec.ID,
		Address:      p.rec.HostPort(),
		Role:         p.rec.Role.String(),
		Discoverable: p.desc.Discoverable,
		MaxSize:      p.desc.MaxSize,
		LastSeen:     time.Now(),
	}

	if p.desc.Discoverable {
		p.log.Info("announcing node capability",
			"id", member.ID, "role", member.Role, "address", member.Address, "max_size", member.MaxSize)
	} else {
		p.log.Info("capability not discoverable, registering membership only",
			"id", member.ID, "role", member.Role, "address", member.Address)
	}

	if err := p.ann.Announce(ctx, member); err != nil {
		return fmt.Errorf("announce node %s: %w", member.ID, err)
	}

	announcementsTotal.Inc()
	if p.desc.Discoverable {
		discoverableGauge.Set(1)
	} else {
		discoverableGauge.Set(0)
	}
	return nil
}
