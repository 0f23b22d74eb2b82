package cluster

import (
	"encoding/json"
	"fmt"
	"io"

	hraft "github.com/hashicorp/raft"
)

// Command is a replicated membership mutation.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	CmdAnnounce = "announce"
	CmdRetire   = "retire"
)

type retirePayload struct {
	ID string `json:"id"`
}

// fsm implements hashicorp/raft.FSM and applies replicated membership
// commands to the manager's member table.
type fsm struct{ m *Manager }

func (f *fsm) Apply(l *hraft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(l.Data, &cmd); err != nil {
		return err
	}
	switch cmd.Type {
	case CmdAnnounce:
		var member Member
		if err := json.Unmarshal(cmd.Payload, &member); err != nil {
			return err
		}
		f.m.applyAnnounce(member)
		return nil
	case CmdRetire:
		var p retirePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return err
		}
		f.m.applyRetire(p.ID)
		return nil
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (f *fsm) Snapshot() (hraft.FSMSnapshot, error) {
	return memberSnapshot{members: f.m.snapshot()}, nil
}

func (f *fsm) Restore(r io.ReadCloser) error {
	defer r.Close()
	var members []Member
	if err := json.NewDecoder(r).Decode(&members); err != nil {
		return err
	}
	f.m.restore(members)
	return nil
}

type memberSnapshot struct{ members []Member }

func (s memberSnapshot) Persist(sink hraft.SnapshotSink) error {
	if err := json.NewEncoder(sink).Encode(s.members); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s memberSnapshot) Release() {}
