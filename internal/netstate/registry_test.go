// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netstate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/netman/internal/logging"
)

type fakeQuerier struct {
	ifaces []Interface
	err    error
	calls  int
}

func (f *fakeQuerier) Query(ctx context.Context) ([]Interface, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Interface, len(f.ifaces))
	copy(out, f.ifaces)
	return out, nil
}

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError})
}

func TestRefreshOrdersByName(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{
		{Name: "wlan0", Kind: KindWireless},
		{Name: "eth0", Kind: KindWired},
		{Name: "eth1", Kind: KindWired},
	}}
	r := NewRegistry(q, time.Second, testLogger())

	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Interfaces, 3)
	assert.Equal(t, "eth0", snap.Interfaces[0].Name)
	assert.Equal(t, "eth1", snap.Interfaces[1].Name)
	assert.Equal(t, "wlan0", snap.Interfaces[2].Name)
	assert.False(t, snap.Stale)
}

func TestRefreshFailureServesStaleSnapshot(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{{Name: "eth0"}}}
	r := NewRegistry(q, time.Second, testLogger())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	q.err = fmt.Errorf("netlink: no buffer space")
	snap, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, snap.Stale, "failed refresh must serve the last known-good snapshot marked stale")
	require.Len(t, snap.Interfaces, 1)
	assert.Equal(t, "eth0", snap.Interfaces[0].Name)

	// Snapshot() agrees with what Refresh returned
	assert.True(t, r.Snapshot().Stale)
}

func TestRefreshClampsTransientZeroCounters(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{
		{Name: "eth0", Stats: Stats{RxBytes: 1000, TxBytes: 500, RxPackets: 10, TxPackets: 5}},
	}}
	r := NewRegistry(q, time.Second, testLogger())

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	q.ifaces[0].Stats = Stats{} // transient zero read
	snap, err := r.Refresh(context.Background())
	require.NoError(t, err)

	got := snap.Interfaces[0].Stats
	assert.Equal(t, uint64(1000), got.RxBytes)
	assert.Equal(t, uint64(500), got.TxBytes)
	assert.Equal(t, uint64(10), got.RxPackets)
	assert.Equal(t, uint64(5), got.TxPackets)
}

func TestLookup(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{{Name: "eth0"}, {Name: "wg0", Kind: KindWireGuard}}}
	r := NewRegistry(q, time.Second, testLogger())
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	iface, ok := r.Snapshot().Lookup("wg0")
	assert.True(t, ok)
	assert.Equal(t, KindWireGuard, iface.Kind)

	_, ok = r.Snapshot().Lookup("eth9")
	assert.False(t, ok)
}

func TestBackgroundPolling(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{{Name: "eth0"}}}
	r := NewRegistry(q, time.Second, testLogger())

	r.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	r.Stop()

	assert.GreaterOrEqual(t, q.calls, 2, "poller should have refreshed repeatedly")
}

func TestPollingRestartsAfterStop(t *testing.T) {
	q := &fakeQuerier{ifaces: []Interface{{Name: "eth0"}}}
	r := NewRegistry(q, time.Second, testLogger())

	r.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	after := q.calls

	r.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	assert.Greater(t, q.calls, after, "second Start must resume polling")
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRegistry(&fakeQuerier{}, time.Second, testLogger())
	r.Stop()
	r.Stop()
}
