package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Manager maintains the cluster member table. Without raft it is a
// single-process table; with raft started, announce/retire are replicated
// commands and every node converges on the same table.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	members map[string]*Member

	raft *raftNode
}

// NewManager creates a manager with an empty member table.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg,
		members: make(map[string]*Member),
	}
}

// StartRaft attaches a raft node so membership mutations replicate.
func (m *Manager) StartRaft(cfg RaftConfig) error {
	rn, err := startRaft(cfg, &fsm{m: m})
	if err != nil {
		return err
	}
	m.raft = rn
	return nil
}

// Announce registers or updates a member. With raft attached the command is
// submitted through the log; otherwise it applies locally.
func (m *Manager) Announce(ctx context.Context, member Member) error {
	if member.ID == "" {
		return fmt.Errorf("announce: member id must not be empty")
	}
	if member.LastSeen.IsZero() {
		member.LastSeen = time.Now()
	}
	if m.raft != nil {
		payload, err := json.Marshal(member)
		if err != nil {
			return err
		}
		return m.raft.submit(ctx, Command{Type: CmdAnnounce, Payload: payload})
	}
	m.applyAnnounce(member)
	return nil
}

// Retire removes a member from the table.
func (m *Manager) Retire(ctx context.Context, id string) error {
	if m.raft != nil {
		payload, err := json.Marshal(retirePayload{ID: id})
		if err != nil {
			return err
		}
		return m.raft.submit(ctx, Command{Type: CmdRetire, Payload: payload})
	}
	m.applyRetire(id)
	return nil
}

// Heartbeat refreshes a member's liveness timestamp.
func (m *Manager) Heartbeat(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if member, ok := m.members[id]; ok {
		member.LastSeen = time.Now()
	}
	m.sweepLocked()
}

// Members returns a snapshot of current members sorted by ID.
func (m *Manager) Members() []Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	out := make([]Member, 0, len(m.members))
	for _, member := range m.members {
		out = append(out, *member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns a member by ID.
func (m *Manager) Lookup(id string) (Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.members[id]
	if !ok {
		return Member{}, false
	}
	return *member, true
}

// IsLeader reports whether this node is the current raft leader. Without
// raft a single-process manager is trivially its own leader.
func (m *Manager) IsLeader() bool {
	if m.raft == nil {
		return true
	}
	return m.raft.isLeader()
}

// LeaderAddr returns the current leader address if known.
func (m *Manager) LeaderAddr() string {
	if m.raft == nil {
		return m.cfg.Address
	}
	return m.raft.leaderAddr()
}

// Join adds a server to the raft configuration as a voting member.
func (m *Manager) Join(id, address string) error {
	if m.raft == nil {
		return nil
	}
	return m.raft.join(id, address)
}

// Close shuts down raft if it was started.
func (m *Manager) Close() {
	if m.raft != nil {
		m.raft.close()
	}
}

// applyAnnounce and applyRetire are the only mutation paths; the raft FSM
// funnels into them so replicated and local modes behave identically.
func (m *Manager) applyAnnounce(member Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member.State = "active"
	m.members[member.ID] = &member
}

func (m *Manager) applyRetire(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, id)
}

// snapshot copies the table for raft snapshots.
func (m *Manager) snapshot() []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Member, 0, len(m.members))
	for _, member := range m.members {
		out = append(out, *member)
	}
	return out
}

// restore replaces the table from a raft snapshot.
func (m *Manager) restore(members []Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = make(map[string]*Member, len(members))
	for i := range members {
		member := members[i]
		m.members[member.ID] = &member
	}
}

// sweepLocked marks members stale when they miss heartbeats.
func (m *Manager) sweepLocked() {
	ttl := m.cfg.HeartbeatTTL
	if ttl <= 0 {
		return
	}
	deadline := time.Now().Add(-ttl)
	for _, member := range m.members {
		if member.LastSeen.Before(deadline) {
			member.State = "stale"
		}
	}
}
