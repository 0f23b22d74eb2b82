package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"segnode/pkg/cluster"
	"segnode/pkg/node"
)

type fakeAnnouncer struct {
	mu    sync.Mutex
	calls []cluster.Member
	err   error
}

func (f *fakeAnnouncer) Announce(_ context.Context, m cluster.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, m)
	return f.err
}

func resolved(t *testing.T, role node.Role, locations []node.StorageLocation) (*node.ServiceDescriptor, *node.IdentityRecord) {
	t.Helper()
	desc, err := node.NewCapabilityResolver(role, locations, node.ProcessingCapacity{NumThreads: 2}).Resolve()
	require.NoError(t, err)
	rec, err := node.NewIdentityRegistry(role, node.Address{Host: "n1", Port: 8083, ServiceName: "segnode"}).Identity()
	require.NoError(t, err)
	return desc, rec
}

func TestPublishDiscoverable(t *testing.T) {
	desc, rec := resolved(t, node.RoleHistorical, []node.StorageLocation{{Path: "/tmp/seg", MaxSize: 1 << 30}})
	ann := &fakeAnnouncer{}
	p := NewPublisher(desc, rec, ann, nil)

	require.NoError(t, p.Publish(context.Background()))
	require.Len(t, ann.calls, 1)

	m := ann.calls[0]
	require.Equal(t, rec.ID, m.ID)
	require.Equal(t, "n1:8083", m.Address)
	require.Equal(t, "historical", m.Role)
	require.True(t, m.Discoverable)
	require.Equal(t, int64(1<<30), m.MaxSize)
}

func TestPublishNotDiscoverableStillRegisters(t *testing.T) {
	desc, rec := resolved(t, node.RoleBroker, nil)
	ann := &fakeAnnouncer{}
	p := NewPublisher(desc, rec, ann, nil)

	require.NoError(t, p.Publish(context.Background()))
	require.Len(t, ann.calls, 1)
	require.False(t, ann.calls[0].Discoverable)
}

func TestPublishExactlyOnce(t *testing.T) {
	desc, rec := resolved(t, node.RoleHistorical, []node.StorageLocation{{Path: "/tmp/seg"}})
	ann := &fakeAnnouncer{}
	p := NewPublisher(desc, rec, ann, nil)

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx))
	require.NoError(t, p.Publish(ctx))
	require.NoError(t, p.Publish(ctx))
	require.Len(t, ann.calls, 1)
}

func TestPublishExactlyOnceUnderRace(t *testing.T) {
	desc, rec := resolved(t, node.RoleHistorical, []node.StorageLocation{{Path: "/tmp/seg"}})
	ann := &fakeAnnouncer{}
	p := NewPublisher(desc, rec, ann, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Publish(context.Background())
		}()
	}
	wg.Wait()
	require.Len(t, ann.calls, 1)
}

func TestPublishErrorIsMemoized(t *testing.T) {
	desc, rec := resolved(t, node.RoleHistorical, []node.StorageLocation{{Path: "/tmp/seg"}})
	ann := &fakeAnnouncer{err: errors.New("transport down")}
	p := NewPublisher(desc, rec, ann, nil)

	err := p.Publish(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), rec.ID)

	// The failed attempt is not retried.
	require.Equal(t, err, p.Publish(context.Background()))
	require.Len(t, ann.calls, 1)
}
