package cluster

import "time"

// Member is one node registered in cluster membership.
type Member struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Role         string    `json:"role"`
	Discoverable bool      `json:"discoverable"`
	MaxSize      int64     `json:"max_size"`
	State        string    `json:"state"`
	LastSeen     time.Time `json:"last_seen"`
}

// Config controls the membership manager.
type Config struct {
	// NodeID is this process's ID.
	NodeID string
	// Address is this process's advertised address.
	Address string
	// HeartbeatTTL marks a member stale if not seen within this duration.
	// Zero disables sweeping.
	HeartbeatTTL time.Duration
}

// RaftConfig defines how to start the local raft node.
type RaftConfig struct {
	NodeID    string
	BindAddr  string
	DataDir   string
	Bootstrap bool
}
