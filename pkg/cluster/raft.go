package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"time"

	hraft "github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

const submitTimeout = 3 * time.Second

// raftNode wraps hashicorp/raft components.
type raftNode struct {
	raft   *hraft.Raft
	store  *raftboltdb.BoltStore
	stable *raftboltdb.BoltStore
	snap   *hraft.FileSnapshotStore
	trans  *hraft.NetworkTransport
}

// startRaft sets up a local raft node. Join from other nodes is handled via
// Manager.Join on the leader.
func startRaft(cfg RaftConfig, fsm hraft.FSM) (*raftNode, error) {
	// Stores
	logPath := filepath.Join(cfg.DataDir, "raft-log.bolt")
	stablePath := filepath.Join(cfg.DataDir, "raft-stable.bolt")
	snapDir := filepath.Join(cfg.DataDir, "raft-snapshots")

	store, err := raftboltdb.NewBoltStore(logPath)
	if err != nil {
		return nil, fmt.Errorf("bolt log store: %w", err)
	}
	stable, err := raftboltdb.NewBoltStore(stablePath)
	if err != nil {
		return nil, fmt.Errorf("bolt stable store: %w", err)
	}
	snap, err := hraft.NewFileSnapshotStore(snapDir, 2, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	// Transport
	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, err
	}
	trans, err := hraft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, nil)
	if err != nil {
		return nil, err
	}

	// Raft config
	rcfg := hraft.DefaultConfig()
	rcfg.LocalID = hraft.ServerID(cfg.NodeID)
	rcfg.HeartbeatTimeout = 200 * time.Millisecond
	rcfg.ElectionTimeout = 200 * time.Millisecond
	rcfg.LeaderLeaseTimeout = 200 * time.Millisecond
	rcfg.CommitTimeout = 50 * time.Millisecond

	ra, err := hraft.NewRaft(rcfg, fsm, store, store, snap, trans)
	if err != nil {
		return nil, err
	}

	n := &raftNode{raft: ra, store: store, stable: stable, snap: snap, trans: trans}

	if cfg.Bootstrap {
		conf := hraft.Configuration{Servers: []hraft.Server{{
			ID:      rcfg.LocalID,
			Address: trans.LocalAddr(),
		}}}
		if err := ra.BootstrapCluster(conf).Error(); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	return n, nil
}

// submit encodes and applies a command via raft and waits for completion.
func (n *raftNode) submit(ctx context.Context, cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	timeout := submitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	return n.raft.Apply(data, timeout).Error()
}

func (n *raftNode) join(id, address string) error {
	cfgFuture := n.raft.GetConfiguration()
	if err := cfgFuture.Error(); err != nil {
		return err
	}
	for _, s := range cfgFuture.Configuration().Servers {
		if s.ID == hraft.ServerID(id) || s.Address == hraft.ServerAddress(address) {
			// already a member; treat as success
			return nil
		}
	}
	return n.raft.AddVoter(hraft.ServerID(id), hraft.ServerAddress(address), 0, 0).Error()
}

func (n *raftNode) isLeader() bool {
	return n.raft.State() == hraft.Leader
}

func (n *raftNode) leaderAddr() string {
	return string(n.raft.Leader())
}

// close shuts down raft and closes stores.
func (n *raftNode) close() {
	n.raft.Shutdown()
	if n.trans != nil {
		n.trans.Close()
	}
	if n.store != nil {
		_ = n.store.Close()
	}
	if n.stable != nil {
		_ = n.stable.Close()
	}
}
