package cluster

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	hraft "github.com/hashicorp/raft"
	"github.com/stretchr/testify/require"
)

func TestManagerAnnounceAndLookup(t *testing.T) {
	m := NewManager(Config{NodeID: "node-1", Address: "node-1:8083"})

	err := m.Announce(context.Background(), Member{
		ID:           "node-1",
		Address:      "node-1:8083",
		Role:         "historical",
		Discoverable: true,
		MaxSize:      10 << 30,
	})
	require.NoError(t, err)

	member, ok := m.Lookup("node-1")
	require.True(t, ok)
	require.Equal(t, "historical", member.Role)
	require.Equal(t, "active", member.State)
	require.True(t, member.Discoverable)
	require.False(t, member.LastSeen.IsZero())
}

func TestManagerAnnounceRejectsEmptyID(t *testing.T) {
	m := NewManager(Config{})
	err := m.Announce(context.Background(), Member{Address: "x:1"})
	require.Error(t, err)
}

func TestManagerAnnounceUpdatesExisting(t *testing.T) {
	m := NewManager(Config{})
	ctx := context.Background()

	require.NoError(t, m.Announce(ctx, Member{ID: "n1", Discoverable: false}))
	require.NoError(t, m.Announce(ctx, Member{ID: "n1", Discoverable: true}))

	require.Len(t, m.Members(), 1)
	member, _ := m.Lookup("n1")
	require.True(t, member.Discoverable)
}

func TestManagerRetire(t *testing.T) {
	m := NewManager(Config{})
	ctx := context.Background()

	require.NoError(t, m.Announce(ctx, Member{ID: "n1"}))
	require.NoError(t, m.Retire(ctx, "n1"))

	_, ok := m.Lookup("n1")
	require.False(t, ok)
	require.Empty(t, m.Members())
}

func TestManagerMembersSorted(t *testing.T) {
	m := NewManager(Config{})
	ctx := context.Background()

	require.NoError(t, m.Announce(ctx, Member{ID: "n2"}))
	require.NoError(t, m.Announce(ctx, Member{ID: "n1"}))
	require.NoError(t, m.Announce(ctx, Member{ID: "n3"}))

	members := m.Members()
	require.Len(t, members, 3)
	require.Equal(t, "n1", members[0].ID)
	require.Equal(t, "n3", members[2].ID)
}

func TestManagerSweepMarksStale(t *testing.T) {
	m := NewManager(Config{HeartbeatTTL: 10 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, m.Announce(ctx, Member{ID: "n1", LastSeen: time.Now().Add(-time.Minute)}))

	members := m.Members()
	require.Len(t, members, 1)
	require.Equal(t, "stale", members[0].State)

	m.Heartbeat("n1")
	member, _ := m.Lookup("n1")
	require.True(t, member.LastSeen.After(time.Now().Add(-time.Second)))
}

func TestManagerWithoutRaftIsLeader(t *testing.T) {
	m := NewManager(Config{Address: "n1:8083"})
	require.True(t, m.IsLeader())
	require.Equal(t, "n1:8083", m.LeaderAddr())
}

func TestFSMApplyAnnounceAndRetire(t *testing.T) {
	m := NewManager(Config{})
	f := &fsm{m: m}

	payload, err := json.Marshal(Member{ID: "n1", Role: "broker"})
	require.NoError(t, err)
	data, err := json.Marshal(Command{Type: CmdAnnounce, Payload: payload})
	require.NoError(t, err)

	res := f.Apply(&hraft.Log{Data: data})
	require.Nil(t, res)
	member, ok := m.Lookup("n1")
	require.True(t, ok)
	require.Equal(t, "broker", member.Role)

	payload, err = json.Marshal(retirePayload{ID: "n1"})
	require.NoError(t, err)
	data, err = json.Marshal(Command{Type: CmdRetire, Payload: payload})
	require.NoError(t, err)

	res = f.Apply(&hraft.Log{Data: data})
	require.Nil(t, res)
	_, ok = m.Lookup("n1")
	require.False(t, ok)
}

func TestFSMApplyUnknownCommand(t *testing.T) {
	f := &fsm{m: NewManager(Config{})}
	data, err := json.Marshal(Command{Type: "resize"})
	require.NoError(t, err)
	res := f.Apply(&hraft.Log{Data: data})
	require.Error(t, res.(error))
}

func TestFSMSnapshotRestore(t *testing.T) {
	src := NewManager(Config{})
	require.NoError(t, src.Announce(context.Background(), Member{ID: "n1", Role: "historical"}))

	members := src.snapshot()
	dst := NewManager(Config{})
	dst.restore(members)

	member, ok := dst.Lookup("n1")
	require.True(t, ok)
	require.Equal(t, "historical", member.Role)
}
