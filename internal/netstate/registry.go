// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netstate

import (
	"context"
	"sort"
	"sync"
	"time"

	"grimm.is/netman/internal/logging"
)

// Querier produces the raw interface list. The production implementation
// reads netlink; tests inject a fake.
type Querier interface {
	Query(ctx context.Context) ([]Interface, error)
}

// Registry maintains the current interface snapshot. Reads never block on
// a kernel query: Snapshot returns the last published state, and Refresh
// degrades to a stale snapshot instead of failing the caller.
type Registry struct {
	querier Querier
	timeout time.Duration
	logger  *logging.Logger

	mu   sync.RWMutex
	last Snapshot

	pollMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// NewRegistry creates a registry. timeout bounds a single query.
func NewRegistry(q Querier, timeout time.Duration, logger *logging.Logger) *Registry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Registry{
		querier: q,
		timeout: timeout,
		logger:  logger.WithComponent("netstate"),
	}
}

// Snapshot returns the last published snapshot without querying.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Refresh queries live state and publishes a new snapshot. On failure the
// previous snapshot is republished marked stale; the returned snapshot is
// always usable. The error reports the underlying query failure.
func (r *Registry) Refresh(ctx context.Context) (Snapshot, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ifaces, err := r.querier.Query(qctx)
	if err != nil {
		r.mu.Lock()
		r.last.Stale = true
		snap := r.last
		r.mu.Unlock()
		r.logger.Warn("interface query failed, serving stale snapshot", "error", err)
		return snap, err
	}

	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })

	r.mu.Lock()
	clampCounters(ifaces, r.last.Interfaces)
	r.last = Snapshot{
		Taken:      time.Now(),
		Interfaces: ifaces,
	}
	snap := r.last
	r.mu.Unlock()
	return snap, nil
}

// clampCounters guards against transient zero-reads: a counter that drops
// to zero while the previous snapshot had a value keeps the old value.
// Genuine resets (interface recreated) republish on the following refresh.
func clampCounters(cur, prev []Interface) {
	byName := make(map[string]Stats, len(prev))
	for _, p := range prev {
		byName[p.Name] = p.Stats
	}
	for i := range cur {
		p, ok := byName[cur[i].Name]
		if !ok {
			continue
		}
		s := &cur[i].Stats
		if s.RxBytes == 0 && p.RxBytes > 0 {
			s.RxBytes = p.RxBytes
		}
		if s.TxBytes == 0 && p.TxBytes > 0 {
			s.TxBytes = p.TxBytes
		}
		if s.RxPackets == 0 && p.RxPackets > 0 {
			s.RxPackets = p.RxPackets
		}
		if s.TxPackets == 0 && p.TxPackets > 0 {
			s.TxPackets = p.TxPackets
		}
	}
}

// Start launches background polling at the given interval until Stop.
// Start after Stop resumes polling; Start while already polling is a
// no-op.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()
	if r.done != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop, r.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.Refresh(ctx); err != nil {
					r.logger.Debug("background refresh failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts background polling. Safe to call repeatedly and without a
// prior Start.
func (r *Registry) Stop() {
	r.pollMu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.pollMu.Unlock()
	if done == nil {
		return
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
